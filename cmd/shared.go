package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/load"
	"github.com/syssam/tabula/schema"
	"github.com/syssam/tabula/sequence"
)

// newLogger returns the logger configured by the log flags, writing to w.
func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch name := viper.GetString(logLevelFlag); name {
	case "trace":
		level = schema.LevelTrace
	default:
		if err := level.UnmarshalText([]byte(name)); err != nil {
			return nil, fmt.Errorf("invalid log level: %s", name)
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	switch format := viper.GetString(logFormatFlag); format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
}

// loadTable reads the schema file and returns the table named by the table
// flag.
func loadTable(logger *slog.Logger) (*schema.Dynamic, error) {
	path := viper.GetString(schemaFlag)
	if path == "" {
		return nil, errors.New("missing schema file")
	}
	r, err := load.File(path, schema.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	name := viper.GetString(tableFlag)
	if name == "" {
		return nil, errors.New("missing table")
	}
	return r.Table(name)
}

// openDriver opens the database selected by the connection flags.
func openDriver(logger *slog.Logger) (dialect.Driver, func() error, error) {
	name := viper.GetString(driverFlag)
	switch name {
	case dialect.SQLite, dialect.MySQL, dialect.Postgres, "pgx":
	case "":
		return nil, nil, errors.New("missing database driver")
	default:
		return nil, nil, fmt.Errorf("invalid database driver: %s", name)
	}
	dsn := viper.GetString(dsnFlag)
	if dsn == "" {
		return nil, nil, errors.New("missing data source name")
	}
	drv, err := sql.Open(name, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open database: %w", err)
	}
	if !viper.GetBool(statsFlag) && viper.GetDuration(slowThresholdFlag) == 0 {
		return drv, drv.Close, nil
	}
	opts := []sql.StatsOption{sql.WithSlowQueryLog(logger)}
	if d := viper.GetDuration(slowThresholdFlag); d > 0 {
		opts = append(opts, sql.WithSlowThreshold(d))
	}
	stats := sql.NewStatsDriver(drv, opts...)
	closer := func() error {
		if viper.GetBool(statsFlag) {
			logger.Info("query stats", "stats", stats.QueryStats().Stats().String())
		}
		return drv.Close()
	}
	return stats, closer, nil
}

// buildSequence applies the sequence flags to the entities of tbl.
func buildSequence(engine sequence.Engine, tbl *schema.Dynamic) (sequence.Sequence[*schema.Entity], error) {
	var opts []sequence.Option
	if viper.GetBool(noReferencesFlag) {
		opts = append(opts, sequence.WithoutReferences())
	}
	s, err := sequence.Of(engine, tbl, opts...)
	if err != nil {
		return s, err
	}
	if where := viper.GetString(whereFlag); where != "" {
		var args []any
		for _, a := range viper.GetStringSlice(argFlag) {
			args = append(args, a)
		}
		s = s.Filter(sql.Expr(where, args...))
	}
	for _, key := range viper.GetStringSlice(sortFlag) {
		name, desc := strings.CutPrefix(key, "-")
		c, err := tbl.Lookup(name)
		if err != nil {
			return s, err
		}
		if desc {
			s = s.SortedByDescending(c.Ref())
		} else {
			s = s.SortedBy(c.Ref())
		}
	}
	if n := viper.GetInt(takeFlag); n >= 0 {
		s = s.Take(n)
	}
	return s.Drop(viper.GetInt(dropFlag)), nil
}

// entityWriter writes entities in the format named by the output flag.
type entityWriter interface {
	Write(e *schema.Entity) error
	Close() error
}

type jsonWriter struct{ enc *json.Encoder }

func (w jsonWriter) Write(e *schema.Entity) error { return w.enc.Encode(e) }
func (jsonWriter) Close() error                   { return nil }

type yamlWriter struct{ enc *yaml.Encoder }

func (w yamlWriter) Write(e *schema.Entity) error { return w.enc.Encode(e) }
func (w yamlWriter) Close() error                 { return w.enc.Close() }

// newEntityWriter returns a writer printing one JSON line or one YAML
// document per entity.
func newEntityWriter(w io.Writer, format string) (entityWriter, error) {
	switch format {
	case "json":
		return jsonWriter{enc: json.NewEncoder(w)}, nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return yamlWriter{enc: enc}, nil
	default:
		return nil, fmt.Errorf("invalid output format: %s", format)
	}
}

// withConnection loads the table, opens the database and calls fn with a
// sequence over the table.
func withConnection(ctx context.Context, stderr io.Writer, fn func(context.Context, sequence.Sequence[*schema.Entity]) error) (err error) {
	logger, err := newLogger(stderr)
	if err != nil {
		return err
	}
	tbl, err := loadTable(logger)
	if err != nil {
		return err
	}
	drv, closer, err := openDriver(logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closer())
	}()
	s, err := buildSequence(sql.NewEngine(drv, sql.WithLogger(logger)), tbl)
	if err != nil {
		return err
	}
	return fn(ctx, s)
}
