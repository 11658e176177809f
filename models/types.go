package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList is a native text[] column on PostgreSQL. Other dialects store the
// same array literal as text, which keeps the sqlite test database compatible.
type StringList []string

// Value implements driver.Valuer
func (s StringList) Value() (driver.Value, error) {
	return pq.StringArray(s).Value()
}

// Scan implements sql.Scanner
func (s *StringList) Scan(src interface{}) error {
	return (*pq.StringArray)(s).Scan(src)
}

// GormDataType is the generic schema type
func (StringList) GormDataType() string {
	return "string_list"
}

// GormDBDataType picks the column type per dialect
func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// MarshalJSON renders a nil list as []
func (s StringList) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

// Int64List is a native bigint[] column on PostgreSQL, text elsewhere
type Int64List []int64

// Value implements driver.Valuer
func (l Int64List) Value() (driver.Value, error) {
	return pq.Int64Array(l).Value()
}

// Scan implements sql.Scanner
func (l *Int64List) Scan(src interface{}) error {
	return (*pq.Int64Array)(l).Scan(src)
}

// GormDataType is the generic schema type
func (Int64List) GormDataType() string {
	return "int64_list"
}

// GormDBDataType picks the column type per dialect
func (Int64List) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "bigint[]"
	}
	return "text"
}

// MarshalJSON renders a nil list as []
func (l Int64List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int64(l))
}

// Contains reports whether v is in the list
func (l Int64List) Contains(v int64) bool {
	for _, x := range l {
		if x == v {
			return true
		}
	}
	return false
}
