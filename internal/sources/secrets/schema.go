package secrets

// File is the layout of the secrets YAML file.
//
//	google_api_key: AIza...
//	search_engine_id: 0123456789abcdef
type File struct {
	GoogleAPIKey   string `yaml:"google_api_key"`
	SearchEngineID string `yaml:"search_engine_id"`
}
