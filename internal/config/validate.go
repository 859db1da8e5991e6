package config

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/adsarch/greylit/internal/author"
)

func init() {
	// Report errors with the names used in the config file.
	validation.ErrorTag = "yaml"
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.API),
		validation.Field(&c.Database),
		validation.Field(&c.Source),
		validation.Field(&c.Series),
		validation.Field(&c.Authors),
		validation.Field(&c.Log),
	)
}

// Validate checks the feed settings.
func (a APIConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.URL, validation.When(!a.UseLocal, validation.Required, is.URL)),
		validation.Field(&a.LocalPath, validation.When(a.UseLocal, validation.Required)),
		validation.Field(&a.RateLimit, validation.Min(0.0)),
		validation.Field(&a.MaxRetries, validation.Min(0)),
		validation.Field(&a.Timeout, validation.Min(0)),
	)
}

// Validate checks the connection settings for the selected driver.
func (d DatabaseConfig) Validate() error {
	oracle := d.Driver == DriverOracle
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In(DriverOracle, DriverSQLite)),
		validation.Field(&d.Username, validation.When(oracle, validation.Required)),
		validation.Field(&d.Host, validation.When(oracle, validation.Required)),
		validation.Field(&d.Port, validation.When(oracle, validation.Required, validation.Min(1), validation.Max(65535))),
		validation.Field(&d.SID, validation.When(oracle && d.Service == "", validation.Required.Error("sid or service is required"))),
		validation.Field(&d.Path, validation.When(d.Driver == DriverSQLite, validation.Required)),
	)
}

// Validate checks the source row settings.
func (s SourceConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&s.Link, is.URL),
	)
}

// Validate checks the series row settings.
func (s SeriesConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&s.PublicationType, validation.Required),
	)
}

// Validate checks the author parsing mode.
func (a AuthorsConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Mode, validation.By(func(v interface{}) error {
			_, err := author.ParseMode(fmt.Sprint(v))
			return err
		})),
	)
}

// Validate checks the logging settings.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("trace", "debug", "info", "warn", "warning", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}

// AuthorMode returns the configured author parsing mode.
func (c Config) AuthorMode() author.Mode {
	mode, err := author.ParseMode(c.Authors.Mode)
	if err != nil {
		return author.Lenient
	}
	return mode
}
