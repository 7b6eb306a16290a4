package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"tennis_bot/configs"
)

func GetConnect(ctx context.Context, dbConfig configs.DbConfig) (*pgx.Conn, error) {
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"host": dbConfig.Host,
		"db":   dbConfig.Name,
	}).Info("Connected to database")
	return conn, nil
}
