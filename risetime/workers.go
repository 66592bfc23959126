package main

import (
	"fmt"
	"sync"

	risetime "github.com/next-exp/risetime_go/pkg"
)

type BoardJob struct {
	Position int
	Config   risetime.BoardConfig
}

type BoardResult struct {
	Position  int
	Board     *risetime.Board
	RiseTimes map[int]float64
	Err       error
}

func worker(id int, jobs <-chan BoardJob, results chan<- BoardResult, config risetime.Configuration, role risetime.SignalRole) {
	for job := range jobs {
		results <- processBoard(id, job, config, role)
	}
}

func processBoard(id int, job BoardJob, config risetime.Configuration, role risetime.SignalRole) (result BoardResult) {
	result.Position = job.Position
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("worker %d recovered from panic on board %s: %v", id, job.Config.Name, r)
		}
	}()

	if config.Verbosity > 1 {
		logger.Info(fmt.Sprintf("Worker %d processing board %s", id, job.Config.Name), "workers")
	}
	board, err := loadBoard(job.Config)
	if err != nil {
		result.Err = err
		return result
	}
	result.Board = board
	result.RiseTimes = board.AnalyzeAll(config.WaveformType, role, config.Analysis)
	return result
}

// loadBoard reads the singles and averages captures configured for a board.
func loadBoard(boardConfig risetime.BoardConfig) (*risetime.Board, error) {
	loader, err := risetime.LoaderFor(boardConfig.Family)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", boardConfig.Name, err)
	}
	board := risetime.NewBoard(boardConfig.Name)

	paths := []struct {
		wt      risetime.WaveformType
		pattern string
	}{
		{risetime.Singles, boardConfig.SinglesPath},
		{risetime.Averages, boardConfig.AveragesPath},
	}
	for _, p := range paths {
		if p.pattern == "" {
			continue
		}
		if _, err := risetime.LoadTraces(board, loader, p.wt, p.pattern); err != nil {
			return nil, fmt.Errorf("board %s: error loading %s: %w", boardConfig.Name, p.wt, err)
		}
	}
	return board, nil
}

// analyzeBoards runs every configured board through the worker pool and
// returns the results in configuration order.
func analyzeBoards(config risetime.Configuration, role risetime.SignalRole) []BoardResult {
	numWorkers := config.NumWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}
	jobs := make(chan BoardJob, len(config.Boards))
	results := make(chan BoardResult, len(config.Boards))

	var wg sync.WaitGroup
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(id, jobs, results, config, role)
		}(w)
	}

	for i, boardConfig := range config.Boards {
		jobs <- BoardJob{Position: i, Config: boardConfig}
	}
	close(jobs)

	wg.Wait()
	close(results)

	ordered := make([]BoardResult, len(config.Boards))
	for result := range results {
		ordered[result.Position] = result
	}
	return ordered
}
