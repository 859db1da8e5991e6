package store

import (
	"fmt"
	"strings"

	go_ora "github.com/sijms/go-ora/v2"
	_ "modernc.org/sqlite"

	"github.com/adsarch/greylit/internal/config"
)

// Dialect captures the SQL differences between the production Oracle
// schema and the SQLite copy used for local runs and tests.
type Dialect struct {
	Name   string
	driver string

	// sequences: ids come from <seq>.NEXTVAL rather than the column default.
	sequences bool
	// returningInto: ids come back through an out bind
	// (RETURNING ... INTO :x) instead of a result row.
	returningInto bool
}

var (
	// Oracle is the production dialect.
	Oracle = Dialect{Name: config.DriverOracle, driver: "oracle", sequences: true, returningInto: true}
	// SQLite is the local dialect.
	SQLite = Dialect{Name: config.DriverSQLite, driver: "sqlite"}
)

// retBind is the bind name of the RETURNING ... INTO out parameter.
const retBind = "ret_id"

// dialectFor returns the dialect and DSN for a database config.
func dialectFor(cfg config.DatabaseConfig) (Dialect, string, error) {
	switch cfg.Driver {
	case config.DriverOracle:
		return Oracle, OracleDSN(cfg), nil
	case config.DriverSQLite:
		return SQLite, cfg.Path, nil
	}
	return Dialect{}, "", fmt.Errorf("unsupported database driver: %q", cfg.Driver)
}

// OracleDSN builds a go-ora connection URL. A SID takes precedence over a
// service name, matching how the trusts' instance is addressed.
func OracleDSN(cfg config.DatabaseConfig) string {
	opts := map[string]string{}
	service := cfg.Service
	if cfg.SID != "" {
		opts["SID"] = cfg.SID
		service = ""
	}
	return go_ora.BuildUrl(cfg.Host, cfg.Port, service, cfg.Username, cfg.Password, opts)
}

// bindName is the named parameter used for a column.
func bindName(column string) string {
	return "v_" + strings.ToLower(column)
}

// insert describes one INSERT statement.
type insert struct {
	table    string
	idColumn string // returned when set
	sequence string // Oracle sequence feeding idColumn
	columns  []string
	values   []any
}

// insertSQL renders ins for the dialect.
func (d Dialect) insertSQL(ins insert) string {
	var cols, vals []string
	if d.sequences && ins.sequence != "" {
		cols = append(cols, ins.idColumn)
		vals = append(vals, ins.sequence+".NEXTVAL")
	}
	for _, c := range ins.columns {
		cols = append(cols, c)
		vals = append(vals, ":"+bindName(c))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES (%s)",
		ins.table, strings.Join(cols, ", "), strings.Join(vals, ", "))

	if ins.idColumn != "" {
		if d.returningInto {
			fmt.Fprintf(&sb, " RETURNING %s INTO :%s", ins.idColumn, retBind)
		} else {
			fmt.Fprintf(&sb, " RETURNING %s", ins.idColumn)
		}
	}
	return sb.String()
}

// nullEq matches a column against a bind where an empty string and NULL
// are the same value. Oracle stores '' as NULL, so a plain "=" never
// matches an empty forename or initials.
func nullEq(column string) string {
	b := bindName(column)
	return fmt.Sprintf("(%s = :%s OR (%s IS NULL AND :%s_n IS NULL))", column, b, column, b)
}
