package config

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// RedisURL is the connection string for the cache backend.
	RedisURL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379"`
	// CacheTTLSeconds bounds the lifetime of cached tax responses.
	CacheTTLSeconds int `mapstructure:"CACHE_TTL_SECONDS" default:"3600"`

	// TaxService holds the remote tax-rate service configuration.
	TaxService TaxServiceConfig `mapstructure:",squash"`

	// Store holds the store-wide origin address and feature flags.
	Store StoreConfig `mapstructure:",squash"`

	// WooCommerce holds the WooCommerce API configuration.
	WooCommerce WooCommerceConfig `mapstructure:",squash"`
}

// TaxServiceConfig holds the credentials for the remote tax-rate service.
type TaxServiceConfig struct {
	// URL is the base URL of the tax-rate service API.
	URL string `mapstructure:"TAX_API_URL" required:"true"`
	// Token is the API token sent with every request.
	Token string `mapstructure:"TAX_API_TOKEN" required:"true"`
	// TimeoutSeconds bounds each remote call.
	TimeoutSeconds int `mapstructure:"TAX_API_TIMEOUT_SECONDS" default:"10"`
}

// StoreConfig holds store-wide settings that feed every calculation context.
type StoreConfig struct {
	// FromCountry is the origin address country code.
	FromCountry string `mapstructure:"STORE_COUNTRY" required:"true"`
	// FromState is the origin address state code.
	FromState string `mapstructure:"STORE_STATE"`
	// FromZip is the origin address postal code.
	FromZip string `mapstructure:"STORE_ZIP" required:"true"`
	// FromCity is the origin address city.
	FromCity string `mapstructure:"STORE_CITY"`
	// FromStreet is the origin address street.
	FromStreet string `mapstructure:"STORE_STREET"`

	// DebugLoggingEnabled gates calculation success/failure log entries.
	DebugLoggingEnabled bool `mapstructure:"DEBUG_LOGGING_ENABLED" default:"false"`
	// APICalcsEnabled allows tax calculation on REST-triggered order saves.
	APICalcsEnabled bool `mapstructure:"API_CALCS_ENABLED" default:"false"`

	// AdminActionSecret signs the tokens that authorize admin partial recalculations.
	AdminActionSecret string `mapstructure:"ADMIN_ACTION_SECRET"`
}

// WooCommerceConfig holds the credentials for the WooCommerce store.
type WooCommerceConfig struct {
	// URL is the base URL of the WooCommerce store.
	URL string `mapstructure:"WC_URL" required:"true"`
	// ConsumerKey is the public key for API access.
	ConsumerKey string `mapstructure:"WC_CONSUMER_KEY" required:"true"`
	// ConsumerSecret is the secret key for API access.
	ConsumerSecret string `mapstructure:"WC_CONSUMER_SECRET" required:"true"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			v.BindEnv(key)
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
