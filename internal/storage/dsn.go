package storage

import (
	"fmt"
	"os"
	"strings"

	"github.com/Shugur-Network/relaydex/internal/config"
)

// Certificate locations checked for secure self-hosted clusters.
const (
	caPath    = "./certs/ca.crt"
	rootCert  = "./certs/client.root.crt"
	rootKey   = "./certs/client.root.key"
	defaultDB = "defaultdb"
)

// ConnectionURIs are the two connection strings used at startup: one to the
// cluster default database (to create the target) and one to the target itself.
// DefaultURI is empty when the target cannot be provisioned from here.
type ConnectionURIs struct {
	DefaultURI string
	TargetURI  string
	Secure     bool
}

// BuildConnectionURIs derives connection strings from the database config.
// A full URL wins over Server/Port; otherwise client certificates under ./certs
// switch the connection to verify-full.
func BuildConnectionURIs(cfg config.DatabaseConfig, dbName string) (ConnectionURIs, error) {
	if cfg.URL != "" {
		return ConnectionURIs{
			DefaultURI: cfg.URL,
			TargetURI:  replaceDBNameInURL(cfg.URL, dbName),
			Secure:     strings.Contains(cfg.URL, "sslmode=verify"),
		}, nil
	}

	if cfg.Server == "" {
		return ConnectionURIs{}, fmt.Errorf("database server is not configured")
	}
	user := cfg.User
	if user == "" {
		user = "root"
	}

	if fileExists(caPath) && allExist(rootCert, rootKey) {
		tls := fmt.Sprintf("sslmode=verify-full&sslrootcert=%s&sslcert=%s&sslkey=%s", caPath, rootCert, rootKey)
		return ConnectionURIs{
			DefaultURI: fmt.Sprintf("postgres://%s@%s:%d/%s?%s", user, cfg.Server, cfg.Port, defaultDB, tls),
			TargetURI:  fmt.Sprintf("postgres://%s@%s:%d/%s?%s", user, cfg.Server, cfg.Port, dbName, tls),
			Secure:     true,
		}, nil
	}

	return ConnectionURIs{
		DefaultURI: fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=disable", user, cfg.Server, cfg.Port, defaultDB),
		TargetURI:  fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=disable", user, cfg.Server, cfg.Port, dbName),
	}, nil
}

// small helpers
func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func allExist(paths ...string) bool {
	for _, p := range paths {
		if !fileExists(p) {
			return false
		}
	}
	return true
}

// replaceDBNameInURL replaces the database name in a PostgreSQL connection URL.
func replaceDBNameInURL(connURL string, newDB string) string {
	schemeEnd := strings.Index(connURL, "://")
	if schemeEnd == -1 {
		return connURL
	}
	rest := connURL[schemeEnd+3:]
	slashIdx := strings.Index(rest, "/")
	if slashIdx == -1 {
		if q := strings.Index(rest, "?"); q != -1 {
			return connURL[:schemeEnd+3+q] + "/" + newDB + rest[q:]
		}
		return connURL + "/" + newDB
	}
	afterSlash := rest[slashIdx+1:]
	qIdx := strings.Index(afterSlash, "?")
	if qIdx == -1 {
		return connURL[:schemeEnd+3+slashIdx+1] + newDB
	}
	return connURL[:schemeEnd+3+slashIdx+1] + newDB + afterSlash[qIdx:]
}
