package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fulldump/refinery/dse"
	"github.com/fulldump/refinery/visualization"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

var (
	ErrNotOperating        = errors.New("database is not operating")
	ErrExplorationNotFound = errors.New("exploration not found")
)

type Config struct {
	// Workers bounds how many explorations run at the same time.
	Workers int
	// ExportDir receives one <id>.jsonl state graph per exploration when set.
	ExportDir string
	Metrics   *dse.Metrics
	Logger    *slog.Logger
}

// Request is everything needed to launch one exploration.
type Request struct {
	Problem      *dse.Problem
	ProblemName  string
	Strategy     dse.Strategy
	StrategyName string
	Options      dse.Options
}

type Database struct {
	config *Config
	logger *slog.Logger

	mutex        sync.RWMutex
	status       string
	explorations map[string]*Exploration

	workers chan struct{}
	running sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	exit    chan struct{}
	stop    sync.Once
}

func NewDatabase(config *Config) *Database {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Database{
		config:       config,
		logger:       logger.With("component", "database"),
		status:       StatusOpening,
		explorations: map[string]*Exploration{},
		workers:      make(chan struct{}, config.Workers),
		ctx:          ctx,
		cancel:       cancel,
		exit:         make(chan struct{}),
	}
}

func (db *Database) GetStatus() string {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.status
}

func (db *Database) setStatus(status string) {
	db.mutex.Lock()
	db.status = status
	db.mutex.Unlock()
}

// Load prepares the export directory and opens the database for requests.
func (db *Database) Load() error {
	if db.config.ExportDir != "" {
		err := os.MkdirAll(db.config.ExportDir, 0755)
		if err != nil {
			db.setStatus(StatusClosing)
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	db.setStatus(StatusOperating)
	db.logger.Info("database operating", "workers", db.config.Workers, "export_dir", db.config.ExportDir)
	return nil
}

func (db *Database) Start() error {

	err := db.Load()
	if err != nil {
		return err
	}

	<-db.exit

	return nil
}

// Stop cancels every running exploration and waits for them to finish.
func (db *Database) Stop() error {
	db.stop.Do(func() {
		db.setStatus(StatusClosing)
		db.cancel()
		db.running.Wait()
		close(db.exit)
		db.logger.Info("database stopped")
	})
	return nil
}

// Launch registers a new exploration and runs it in the background as soon
// as a worker is free.
func (db *Database) Launch(request *Request) (*Exploration, error) {

	db.mutex.Lock()
	defer db.mutex.Unlock()

	if db.status != StatusOperating {
		return nil, ErrNotOperating
	}

	ctx, cancel := context.WithCancel(db.ctx)
	e := &Exploration{
		Id:       uuid.New().String(),
		Problem:  request.ProblemName,
		Strategy: request.StrategyName,
		Created:  time.Now().UTC(),
		recorder: visualization.NewRecorder(),
		status:   ExplorationQueued,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	db.explorations[e.Id] = e

	db.running.Add(1)
	go func() {
		defer db.running.Done()
		defer cancel()
		db.run(ctx, e, request)
	}()

	return e, nil
}

func (db *Database) run(ctx context.Context, e *Exploration, request *Request) {

	defer close(e.done)

	select {
	case db.workers <- struct{}{}:
		defer func() { <-db.workers }()
	case <-ctx.Done():
		e.finish(nil, ctx.Err())
		return
	}

	logger := db.logger.With("exploration", e.Id, "problem", e.Problem)

	options := request.Options
	options.Logger = logger
	options.Metrics = db.config.Metrics
	options.Visualizer = e.recorder

	if db.config.ExportDir != "" {
		filename := filepath.Join(db.config.ExportDir, e.Id+".jsonl")
		f, err := os.Create(filename)
		if err != nil {
			e.finish(nil, fmt.Errorf("create export file: %w", err))
			return
		}
		defer f.Close()
		options.Visualizer = visualization.Tee{e.recorder, visualization.NewJSONLines(f, logger)}
	}

	e.setStatus(ExplorationRunning)
	result, err := dse.Explore(ctx, request.Problem, request.Strategy, &options)
	if err != nil {
		logger.Error("exploration failed", "error", err)
	}
	e.finish(result, err)
}

func (db *Database) Get(id string) (*Exploration, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	e, exists := db.explorations[id]
	if !exists {
		return nil, fmt.Errorf("exploration '%s': %w", id, ErrExplorationNotFound)
	}
	return e, nil
}

// List returns every exploration, oldest first.
func (db *Database) List() []*Exploration {
	db.mutex.RLock()
	result := make([]*Exploration, 0, len(db.explorations))
	for _, e := range db.explorations {
		result = append(result, e)
	}
	db.mutex.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Created.Equal(result[j].Created) {
			return result[i].Id < result[j].Id
		}
		return result[i].Created.Before(result[j].Created)
	})
	return result
}
