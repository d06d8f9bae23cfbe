// Package config provides configuration management for the measurement extractor.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Defaults come from the `default` struct tags of each section.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key and body limit for the serve command
//   - Storage: S3/MinIO credentials, upload bucket and prefix
//   - Log: logging level and format
//   - Database: run store driver and connection details
//   - Extract: data directory and debug file name used to derive output destinations
//
// The extraction document (which items to pull from which chart) is not part of this
// configuration; it is loaded per run by the measurements feature.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Extract.DataDir)
package config
