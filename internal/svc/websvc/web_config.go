package websvc

// WebConfig holds configuration for the console pages.
type WebConfig struct {
	// SessionKey authenticates the flash message cookie; a random key is
	// generated per process when empty
	SessionKey string `env:"SESSION_KEY" default:""`

	// PageSize is the page size assumed when a list page comes back empty
	PageSize int `env:"PAGE_SIZE" default:"9"`

	// RoutesFile optionally replaces the built-in route table
	RoutesFile string `env:"ROUTES_FILE" default:""`
}
