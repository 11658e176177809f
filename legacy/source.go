package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type userRow struct {
	ID              int64
	Username        string
	Password        string
	Role            sql.NullString
	Avatar          sql.NullString
	City            sql.NullString
	Birthday        sql.NullString
	Notes           sql.NullString
	InitialUsername sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type productRow struct {
	ID               int64
	Name             string
	RelatedName      sql.NullString
	Description      sql.NullString
	OriginalHeight   sql.NullFloat64
	OriginalWidth    sql.NullFloat64
	OriginalLength   sql.NullFloat64
	PartsCount       sql.NullInt64
	MainImage        sql.NullString
	AdditionalImages sql.NullString
	PriceOptions     sql.NullString
	IsVisible        sql.NullBool
	SalesCount       sql.NullInt64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type orderRow struct {
	ID                int64
	UserID            int64
	Products          sql.NullString
	TotalPrice        sql.NullFloat64
	Status            sql.NullString
	Notes             sql.NullString
	AdminNotes        sql.NullString
	AssignedExecutors sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type customRequestRow struct {
	ID              int64
	UserID          int64
	ProductID       sql.NullInt64
	ProductName     sql.NullString
	ModelLinks      sql.NullString
	AdditionalName  sql.NullString
	RequiredHeights sql.NullString
	Images          sql.NullString
	Status          sql.NullString
	AdminNotes      sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type chatRow struct {
	ID         int64
	FromUserID int64
	ToUserID   int64
	Message    sql.NullString
	CreatedAt  time.Time
}

type settingsRow struct {
	ID               int64
	PaymentInfo      sql.NullString
	PriceCoefficient sql.NullFloat64
	DiscountRules    sql.NullString
	ShowDiscount     sql.NullBool
}

type favoriteRow struct {
	ID        int64
	UserID    int64
	ProductID int64
	CreatedAt time.Time
}

type portfolioRow struct {
	ID        int64
	UserID    int64
	ImagePath sql.NullString
	CreatedAt time.Time
}

type legacyData struct {
	users          []userRow
	products       []productRow
	orders         []orderRow
	customRequests []customRequestRow
	chat           []chatRow
	settings       *settingsRow
	favorites      []favoriteRow
	portfolio      []portfolioRow
}

// load reads every legacy table up front so no source cursor stays open while writing
func (im *Importer) load(ctx context.Context) (*legacyData, error) {
	data := &legacyData{}

	err := im.scan(ctx, "users",
		`SELECT id, username, password, role, avatar, city, birthday, notes, initial_username, registration_date, updated_date FROM users ORDER BY id`,
		func(rows *sql.Rows) error {
			var r userRow
			var created, updated sql.NullTime
			if err := rows.Scan(&r.ID, &r.Username, &r.Password, &r.Role, &r.Avatar, &r.City, &r.Birthday,
				&r.Notes, &r.InitialUsername, &created, &updated); err != nil {
				return err
			}
			r.CreatedAt, r.UpdatedAt = timeOrZero(created), timeOrZero(updated)
			data.users = append(data.users, r)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = im.scan(ctx, "products",
		`SELECT id, name, related_name, description, original_height, original_width, original_length, parts_count,
			main_image, additional_images, price_options, is_visible, sales_count, created_date, updated_date
		FROM products ORDER BY id`,
		func(rows *sql.Rows) error {
			var r productRow
			var created, updated sql.NullTime
			if err := rows.Scan(&r.ID, &r.Name, &r.RelatedName, &r.Description, &r.OriginalHeight, &r.OriginalWidth,
				&r.OriginalLength, &r.PartsCount, &r.MainImage, &r.AdditionalImages, &r.PriceOptions, &r.IsVisible,
				&r.SalesCount, &created, &updated); err != nil {
				return err
			}
			r.CreatedAt, r.UpdatedAt = timeOrZero(created), timeOrZero(updated)
			data.products = append(data.products, r)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = im.scan(ctx, "orders",
		`SELECT id, user_id, products, total_price, status, notes, admin_notes, assigned_executors, created_date, updated_date
		FROM orders ORDER BY id`,
		func(rows *sql.Rows) error {
			var r orderRow
			var created, updated sql.NullTime
			if err := rows.Scan(&r.ID, &r.UserID, &r.Products, &r.TotalPrice, &r.Status, &r.Notes, &r.AdminNotes,
				&r.AssignedExecutors, &created, &updated); err != nil {
				return err
			}
			r.CreatedAt, r.UpdatedAt = timeOrZero(created), timeOrZero(updated)
			data.orders = append(data.orders, r)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = im.scan(ctx, "custom_requests",
		`SELECT id, user_id, product_id, product_name, model_links, additional_name, required_heights, images, status,
			admin_notes, created_date, updated_date
		FROM custom_requests ORDER BY id`,
		func(rows *sql.Rows) error {
			var r customRequestRow
			var created, updated sql.NullTime
			if err := rows.Scan(&r.ID, &r.UserID, &r.ProductID, &r.ProductName, &r.ModelLinks, &r.AdditionalName,
				&r.RequiredHeights, &r.Images, &r.Status, &r.AdminNotes, &created, &updated); err != nil {
				return err
			}
			r.CreatedAt, r.UpdatedAt = timeOrZero(created), timeOrZero(updated)
			data.customRequests = append(data.customRequests, r)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = im.scan(ctx, "chat_messages",
		`SELECT id, from_user_id, to_user_id, message, created_date FROM chat_messages ORDER BY id`,
		func(rows *sql.Rows) error {
			var r chatRow
			var created sql.NullTime
			if err := rows.Scan(&r.ID, &r.FromUserID, &r.ToUserID, &r.Message, &created); err != nil {
				return err
			}
			r.CreatedAt = timeOrZero(created)
			data.chat = append(data.chat, r)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = im.scan(ctx, "settings",
		`SELECT id, payment_info, price_coefficient, discount_rules, show_discount_on_products FROM settings ORDER BY id`,
		func(rows *sql.Rows) error {
			if data.settings != nil {
				return nil
			}
			var r settingsRow
			if err := rows.Scan(&r.ID, &r.PaymentInfo, &r.PriceCoefficient, &r.DiscountRules, &r.ShowDiscount); err != nil {
				return err
			}
			data.settings = &r
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = im.scan(ctx, "user_favorites",
		`SELECT id, user_id, product_id, created_date FROM user_favorites ORDER BY id`,
		func(rows *sql.Rows) error {
			var r favoriteRow
			var created sql.NullTime
			if err := rows.Scan(&r.ID, &r.UserID, &r.ProductID, &created); err != nil {
				return err
			}
			r.CreatedAt = timeOrZero(created)
			data.favorites = append(data.favorites, r)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = im.scan(ctx, "portfolio",
		`SELECT id, user_id, image_path, created_date FROM portfolio ORDER BY id`,
		func(rows *sql.Rows) error {
			var r portfolioRow
			var created sql.NullTime
			if err := rows.Scan(&r.ID, &r.UserID, &r.ImagePath, &created); err != nil {
				return err
			}
			r.CreatedAt = timeOrZero(created)
			data.portfolio = append(data.portfolio, r)
			return nil
		})
	if err != nil {
		return nil, err
	}

	return data, nil
}

func (im *Importer) scan(ctx context.Context, table, query string, fn func(*sql.Rows) error) error {
	rows, err := im.src.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to read legacy %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("failed to scan legacy %s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read legacy %s: %w", table, err)
	}
	return nil
}
