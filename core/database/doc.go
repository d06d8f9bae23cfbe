// Package database handles database connections for the run store.
//
// It provides a wrapper around GORM to configure either a MySQL connection or a local
// SQLite file based on the application's configuration. The connection is optional:
// it is only opened when extraction runs are persisted (extract --persist, or the HTTP
// surface when a database is reachable).
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	err = database.Migrate(db, &models.Run{}, &models.Conflict{})
package database
