package browser

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.999999999"
	clockLayout     = "15:04:05.999999999"
)

// decoder turns one scanned column value into a JSON-compatible value.
// dest allocates the scan destination; value reads it back, yielding nil for SQL NULL.
type decoder struct {
	dest  func() any
	value func(dest any) any
}

func scanAs[T any](convert func(T) any) decoder {
	return decoder{
		dest:  func() any { return new(T) },
		value: func(d any) any { return convert(*d.(*T)) },
	}
}

var (
	// NaN and the infinities have no JSON form and decode to null.
	floatDecoder = scanAs(func(v sql.NullFloat64) any {
		if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
			return nil
		}
		return v.Float64
	})

	textDecoder = scanAs(func(v sql.NullString) any {
		if !v.Valid {
			return nil
		}
		return v.String
	})

	jsonDecoder = scanAs(func(v []byte) any {
		if v == nil {
			return nil
		}
		if !json.Valid(v) {
			return string(v)
		}
		return json.RawMessage(v)
	})

	// nullDecoder handles every type missing from decoders; the column
	// content is scanned and dropped.
	nullDecoder = decoder{
		dest:  func() any { return new(any) },
		value: func(any) any { return nil },
	}
)

// decoders maps lower-case PostgreSQL type names to their decode rule.
var decoders = map[string]decoder{
	"int4": scanAs(func(v sql.NullInt32) any {
		if !v.Valid {
			return nil
		}
		return v.Int32
	}),
	"int8": scanAs(func(v sql.NullInt64) any {
		if !v.Valid {
			return nil
		}
		return v.Int64
	}),
	"float4": floatDecoder,
	"float8": floatDecoder,
	"bool": scanAs(func(v sql.NullBool) any {
		if !v.Valid {
			return nil
		}
		return v.Bool
	}),
	"varchar": textDecoder,
	"text":    textDecoder,
	"bytea": scanAs(func(v []byte) any {
		if v == nil {
			return nil
		}
		return v
	}),
	"date": scanAs(func(v sql.NullTime) any {
		if !v.Valid {
			return nil
		}
		return v.Time.Format(dateLayout)
	}),
	"timestamp": scanAs(func(v sql.NullTime) any {
		if !v.Valid {
			return nil
		}
		return v.Time.Format(timestampLayout)
	}),
	"timestamptz": scanAs(func(v sql.NullTime) any {
		if !v.Valid {
			return nil
		}
		return v.Time.UTC().Format(time.RFC3339Nano)
	}),
	"time": scanAs(func(v nullClock) any {
		if !v.Valid {
			return nil
		}
		return v.Value
	}),
	"uuid": scanAs(func(v uuid.NullUUID) any {
		if !v.Valid {
			return nil
		}
		return v.UUID.String()
	}),
	"json":  jsonDecoder,
	"jsonb": jsonDecoder,
}

// decoderFor returns the rule for a database type name, falling back to null.
func decoderFor(typeName string) decoder {
	if d, ok := decoders[strings.ToLower(typeName)]; ok {
		return d
	}
	return nullDecoder
}

// nullClock scans a time-of-day. Drivers hand it over as text or as a
// time.Time anchored on the zero date.
type nullClock struct {
	Value string
	Valid bool
}

func (c *nullClock) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		c.Value, c.Valid = "", false
		return nil
	case time.Time:
		c.Value, c.Valid = v.Format(clockLayout), true
		return nil
	case string:
		c.Value, c.Valid = normalizeClock(v), true
		return nil
	case []byte:
		c.Value, c.Valid = normalizeClock(string(v)), true
		return nil
	default:
		return fmt.Errorf("cannot scan %T into time of day", src)
	}
}

func normalizeClock(s string) string {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		// 24:00:00 is a valid PostgreSQL time but not a Go clock value.
		return s
	}
	return t.Format(clockLayout)
}
