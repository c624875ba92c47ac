//go:build integration

package testutil

import (
	"fmt"
	"os"
	"testing"
)

type TestEnv struct {
	MongoURI      string
	DatabaseName  string
	ServerURL     string
	ServerPort    string
	JWTSecret     string
	WebhookSecret string
}

func NewTestEnv() *TestEnv {
	serverPort := getEnv("TEST_SERVER_PORT", "8080")

	return &TestEnv{
		MongoURI:      getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName:  getEnv("TEST_DB_NAME", DefaultDatabaseName),
		ServerPort:    serverPort,
		ServerURL:     getEnv("TEST_SERVER_URL", fmt.Sprintf("http://localhost:%s", serverPort)),
		JWTSecret:     getEnv("TEST_JWT_SECRET", "integration-secret"),
		WebhookSecret: getEnv("TEST_STRIPE_WEBHOOK_SECRET", "whsec_integration"),
	}
}

// Setup clears the booking data and waits until the service answers.
func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *Client) {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanDatabase(t)

	client := NewClient(e.ServerURL, e.JWTSecret)
	client.WaitForHealthy(t, DefaultHealthCheckTimeout)

	return mongo, client
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanDatabase(t)
		mongo.Close(t)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

const (
	DefaultHealthCheckTimeout = 3 * ConnectionTimeout
)
