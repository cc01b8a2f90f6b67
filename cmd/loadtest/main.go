package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	vegeta "github.com/tsenart/vegeta/v12/lib"
)

type options struct {
	target   string
	rps      int
	duration time.Duration
	users    int
}

var httpc = &http.Client{Timeout: 10 * time.Second}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var opts options
	flagSet := pflag.NewFlagSet("loadtest", pflag.ContinueOnError)
	flagSet.StringVar(&opts.target, "target", "http://localhost:8080", "admin API base URL")
	flagSet.IntVar(&opts.rps, "rps", 20, "requests per second")
	flagSet.DurationVar(&opts.duration, "duration", time.Minute, "attack duration")
	flagSet.IntVar(&opts.users, "users", 200, "number of users to seed")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		logger.Fatalf("Invalid flags: %v", err)
	}

	users, err := seedUsers(opts, logger)
	if err != nil {
		logger.Fatalf("Seed failed: %v", err)
	}

	runAttack(opts, users, logger)
}

func postJSON(url string, body any) (int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// seedUsers регистрирует участников, по которым потом идет нагрузка.
func seedUsers(opts options, logger *logrus.Logger) ([]string, error) {
	logger.WithField("users", opts.users).Info("Seeding users")

	users := make([]string, 0, opts.users)
	for i := 1; i <= opts.users; i++ {
		uid := fmt.Sprintf("%d", 100000+i)
		status, err := postJSON(opts.target+"/users/register", map[string]string{
			"user_id":  uid,
			"username": fmt.Sprintf("student_%d", i),
		})
		if err != nil {
			return nil, err
		}
		if status >= 400 {
			logger.WithField("status", status).Warn("users/register returned an error")
		}
		users = append(users, uid)
	}
	return users, nil
}

func jsonTarget(t *vegeta.Target, method, url string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	t.Method = method
	t.URL = url
	t.Body = b
	t.Header = http.Header{"Content-Type": {"application/json"}}
	return nil
}

func makeTargeter(opts options, users []string) vegeta.Targeter {
	return func(t *vegeta.Target) error {
		user := users[rand.Intn(len(users))]
		r := rand.Float64()

		switch {
		// 70% проверка статуса, это самый частый вызов от бота
		case r < 0.70:
			t.Method = http.MethodGet
			t.URL = fmt.Sprintf("%s/users/%s/active", opts.target, user)
			t.Body = nil
			t.Header = http.Header{"Accept": {"application/json"}}
			return nil
		case r < 0.85:
			return jsonTarget(t, http.MethodPost, opts.target+"/users/register", map[string]string{"user_id": user})
		case r < 0.95:
			return jsonTarget(t, http.MethodPut, fmt.Sprintf("%s/users/%s/reminders", opts.target, user),
				map[string]bool{"enabled": rand.Intn(2) == 0})
		case r < 0.99:
			return jsonTarget(t, http.MethodPost, fmt.Sprintf("%s/users/%s/warnings", opts.target, user),
				map[string]string{"reason": "load test", "actor_id": "loadtest"})
		default:
			t.Method = http.MethodGet
			t.URL = opts.target + "/stats/weekly"
			t.Body = nil
			t.Header = http.Header{"Accept": {"application/json"}}
			return nil
		}
	}
}

func runAttack(opts options, users []string, logger *logrus.Logger) {
	rate := vegeta.Rate{Freq: opts.rps, Per: time.Second}
	attacker := vegeta.NewAttacker()

	var metrics vegeta.Metrics

	logger.WithFields(logrus.Fields{
		"target":   opts.target,
		"rps":      opts.rps,
		"duration": opts.duration,
	}).Info("Starting attack")
	for res := range attacker.Attack(makeTargeter(opts, users), rate, opts.duration, "course-bot-load") {
		metrics.Add(res)
	}
	metrics.Close()

	logger.WithFields(logrus.Fields{
		"requests":     metrics.Requests,
		"success_rate": fmt.Sprintf("%.2f%%", metrics.Success*100),
		"latency_mean": metrics.Latencies.Mean,
		"latency_p95":  metrics.Latencies.P95,
		"latency_p99":  metrics.Latencies.P99,
		"status_codes": metrics.StatusCodes,
	}).Info("Attack finished")
}
