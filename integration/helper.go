//go:build integration

package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	reposql "github.com/iyhunko/product-catalog/internal/repository/sql"
	sqspkg "github.com/iyhunko/product-catalog/internal/sqs"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	containerMaxWait   = 120 * time.Second
	containerExpirySec = 180
	testRegion         = "us-east-1"
)

// TestDB holds the test database connection and cleanup function
type TestDB struct {
	DB       *sql.DB
	Pool     *dockertest.Pool
	Resource *dockertest.Resource
}

// TestQueue holds a LocalStack SQS queue and its client.
type TestQueue struct {
	Client   *awssqs.Client
	QueueURL string
	Pool     *dockertest.Pool
	Resource *dockertest.Resource
}

func newPool(t *testing.T) *dockertest.Pool {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("Could not connect to docker: %s", err)
	}
	pool.MaxWait = containerMaxWait
	return pool
}

func runContainer(t *testing.T, pool *dockertest.Pool, opts *dockertest.RunOptions) *dockertest.Resource {
	t.Helper()

	resource, err := pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("Could not start %s: %s", opts.Repository, err)
	}

	// Expire the container to avoid orphans when a test crashes
	if err := resource.Expire(containerExpirySec); err != nil {
		t.Fatalf("Could not set expiration: %s", err)
	}
	return resource
}

// SetupTestDB sets up a PostgreSQL container using dockertest and runs migrations
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool := newPool(t)
	resource := runContainer(t, pool, &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_USER=testuser",
			"POSTGRES_DB=testdb",
			"listen_addresses='*'",
		},
	})

	databaseURL := fmt.Sprintf("postgres://testuser:secret@%s/testdb?sslmode=disable", resource.GetHostPort("5432/tcp"))
	log.Println("Connecting to database on url: ", databaseURL)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var err error
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			return err
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("Could not connect to database: %s", err)
	}

	// Migrations live at the module root
	migrationsPath := "../migrations"
	if _, err := os.Stat(migrationsPath); os.IsNotExist(err) {
		t.Fatalf("Migrations directory not found: %s", migrationsPath)
	}
	if err := reposql.RunMigrations(db, "file://"+migrationsPath); err != nil {
		t.Fatalf("Could not run migrations: %s", err)
	}

	return &TestDB{
		DB:       db,
		Pool:     pool,
		Resource: resource,
	}
}

// Cleanup closes the database connection and purges the Docker container
func (tdb *TestDB) Cleanup(t *testing.T) {
	t.Helper()

	if tdb.DB != nil {
		if err := tdb.DB.Close(); err != nil {
			t.Errorf("Could not close database: %s", err)
		}
	}
	purge(t, tdb.Pool, tdb.Resource)
}

// TruncateTables removes all products from the test database
func (tdb *TestDB) TruncateTables(t *testing.T) {
	t.Helper()

	if _, err := tdb.DB.ExecContext(context.Background(), "TRUNCATE TABLE products"); err != nil {
		t.Fatalf("Could not truncate table products: %s", err)
	}
}

// SetupTestQueue starts LocalStack with SQS enabled and creates a queue.
func SetupTestQueue(t *testing.T) *TestQueue {
	t.Helper()

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	pool := newPool(t)
	resource := runContainer(t, pool, &dockertest.RunOptions{
		Repository: "localstack/localstack",
		Tag:        "3.8",
		Env:        []string{"SERVICES=sqs"},
	})

	endpoint := "http://" + resource.GetHostPort("4566/tcp")
	client, err := sqspkg.NewClient(context.Background(), testRegion, endpoint)
	if err != nil {
		t.Fatalf("Could not create SQS client: %s", err)
	}

	var queueURL string
	if err := pool.Retry(func() error {
		out, err := client.CreateQueue(context.Background(), &awssqs.CreateQueueInput{
			QueueName: aws.String("product-events"),
		})
		if err != nil {
			return err
		}
		queueURL = aws.ToString(out.QueueUrl)
		return nil
	}); err != nil {
		t.Fatalf("Could not create queue: %s", err)
	}

	return &TestQueue{
		Client:   client,
		QueueURL: queueURL,
		Pool:     pool,
		Resource: resource,
	}
}

// Cleanup purges the LocalStack container.
func (tq *TestQueue) Cleanup(t *testing.T) {
	t.Helper()
	purge(t, tq.Pool, tq.Resource)
}

func purge(t *testing.T, pool *dockertest.Pool, resource *dockertest.Resource) {
	t.Helper()

	if pool != nil && resource != nil {
		if err := pool.Purge(resource); err != nil {
			t.Errorf("Could not purge resource: %s", err)
		}
	}
}
