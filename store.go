package main

import (
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bihlink/shuttlecraft/storage"
)

// storeFlags selects the storage backend for a command. The default is a
// flat file store under --data; --sqlite and --mysql select the dictionary
// database backends.
type storeFlags struct {
	Data   string `help:"path to the data directory" default:"data"`
	Sqlite string `help:"sqlite database to store records in" optional:""`
	Mysql  string `help:"mysql data source name to store records in" optional:""`
}

func (f *storeFlags) open() (storage.Store, error) {
	switch {
	case f.Sqlite != "":
		db, err := gorm.Open(&sqlite.Dialector{DSN: f.Sqlite}, &gorm.Config{})
		if err != nil {
			return nil, err
		}
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, err
		}
		return storage.NewDictStore(db)
	case f.Mysql != "":
		db, err := gorm.Open(mysql.New(mysql.Config{
			DSN: mergeOptions(f.Mysql, "charset=utf8mb4&parseTime=True&loc=Local"),
		}), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		if err := configureDB(db); err != nil {
			return nil, err
		}
		return storage.NewDictStore(db)
	default:
		return storage.NewFileStore(f.Data)
	}
}

// mergeOptions appends the options to the DSN if they are not already present.
func mergeOptions(dsn, options string) string {
	if options == "" {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + options
	}
	return dsn + "?" + options
}

func configureDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	// SetMaxIdleConns sets the maximum number of connections in the idle connection pool.
	sqlDB.SetMaxIdleConns(10)

	// SetMaxOpenConns sets the maximum number of open connections to the database.
	sqlDB.SetMaxOpenConns(100)

	// SetConnMaxLifetime sets the maximum amount of time a connection may be reused.
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}
