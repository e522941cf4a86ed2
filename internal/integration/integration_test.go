package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
	pgloader "exam-quiz-service/internal/infra/postgres"
	pgmigrations "exam-quiz-service/internal/infra/postgres/migrations"
	infraredis "exam-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestExamSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedExam(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	questions := infraredis.NewQuestionRepository(redisClient, loader, 5*time.Minute, zerolog.Nop())
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewQuizService(sessions, questions, loader, app.ServiceOptions{
		Session: app.SessionOptions{Logger: zerolog.Nop()},
	})

	exams, err := service.ListExams(ctx)
	if err != nil {
		t.Fatalf("list exams: %v", err)
	}
	if len(exams) != 1 || exams[0].ID != "js-101" {
		t.Fatalf("unexpected exams %+v", exams)
	}

	session, err := service.Open(ctx, "js-101")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if n, err := redisClient.Exists(ctx, "quiz:session:"+session.ID(), "quiz:questions:js-101").Result(); err != nil || n != 2 {
		t.Fatalf("expected session marker and cached questions, got n=%d err=%v", n, err)
	}

	if ok, err := session.Start(); !ok || err != nil {
		t.Fatalf("start: ok=%v err=%v", ok, err)
	}
	for _, answer := range []int{0, 1, 1} {
		if !session.SelectAnswer(answer) {
			t.Fatalf("select %d rejected", answer)
		}
		session.Next()
	}
	report, ok := session.Submit()
	if !ok {
		t.Fatalf("submit rejected")
	}
	if report.CorrectCount != 2 || report.TotalQuestions != 3 {
		t.Fatalf("expected 2/3, got %+v", report)
	}
	if want := []bool{true, false, true}; fmt.Sprint(report.PerQuestion) != fmt.Sprint(want) {
		t.Fatalf("expected per-question %v, got %v", want, report.PerQuestion)
	}

	service.Close(session.ID())
	if n, _ := redisClient.Exists(ctx, "quiz:session:"+session.ID()).Result(); n != 0 {
		t.Fatalf("expected session marker removed")
	}

	if _, err := service.Open(ctx, "missing"); !errors.Is(err, domain.ErrExamNotFound) {
		t.Fatalf("expected ErrExamNotFound, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedExam(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO exams (id, title, description) VALUES (?, ?, ?)`,
		"js-101", "JavaScript Fundamentals", "Core language questions"); err != nil {
		t.Fatalf("insert exam: %v", err)
	}
	rows := []struct {
		id, text, options string
		correct           int
	}{
		{"q1", "Which keyword declares a constant?", "const\nlet\nvar", 0},
		{"q2", "What does typeof [] return?", "array\nlist\nobject", 2},
		{"q3", "Which method parses JSON?", "JSON.stringify\nJSON.parse", 1},
	}
	for i, r := range rows {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO questions (id, exam_id, position, question, options, correct_answer) VALUES (?, ?, ?, ?, ?, ?)`,
			r.id, "js-101", i, r.text, r.options, r.correct); err != nil {
			t.Fatalf("insert question %s: %v", r.id, err)
		}
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
