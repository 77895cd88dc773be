package utils

import "fmt"

type PGConfig struct {
	Hostname         string
	Port             string
	User             string
	Password         string
	Database         string
	ConnectionString string
}

func (config PGConfig) GetConnectionString() string {
	if config.ConnectionString != "" {
		return config.ConnectionString
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s database=%s sslmode=disable",
		config.Hostname, config.Port, config.User, config.Password, config.Database)
}
