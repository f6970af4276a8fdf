package main

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	jobCancellersMu sync.Mutex
	jobCancellers   = make(map[string]context.CancelFunc)
)

// Job represents one queued or running analysis
type Job struct {
	ID          string
	CompanyName string
	Request     SubmitAnalysisRequest
	Status      string // "pending", "in_progress", "completed", "failed", "cancelled"
	Error       string
	AnalysisID  uint // ID of the stored AnalysisRecord once completed
	CreatedAt   time.Time
	UpdatedAt   time.Time
	StepsDone   int
	TotalSteps  int
}

// JobStore manages jobs and their statuses
type JobStore struct {
	sync.RWMutex
	jobs map[string]*Job
}

var (
	jobStore = &JobStore{
		jobs: make(map[string]*Job),
	}
	jobQueue = make(chan *Job, 100) // Buffered channel with capacity of 100 jobs
)

func generateJobID() string {
	return uuid.New().String()
}

func (store *JobStore) addJob(job *Job) {
	store.Lock()
	defer store.Unlock()
	job.StepsDone = 0
	job.TotalSteps = totalAnalysisSteps
	store.jobs[job.ID] = job
	log.Infof("Job added: %s (%s)", job.ID, job.CompanyName)
}

func (store *JobStore) getJob(jobID string) (*Job, bool) {
	store.RLock()
	defer store.RUnlock()
	job, exists := store.jobs[jobID]
	return job, exists
}

func (store *JobStore) GetAllJobs() []*Job {
	store.RLock()
	defer store.RUnlock()

	jobs := make([]*Job, 0, len(store.jobs))
	for _, job := range store.jobs {
		jobs = append(jobs, job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	return jobs
}

func (store *JobStore) updateJobStatus(jobID, status, errMsg string) {
	store.Lock()
	defer store.Unlock()
	if job, exists := store.jobs[jobID]; exists {
		job.Status = status
		if errMsg != "" {
			job.Error = errMsg
		}
		job.UpdatedAt = time.Now()
		log.Infof("Job %s status updated: %s", jobID, status)
	}
}

func (store *JobStore) setAnalysisID(jobID string, analysisID uint) {
	store.Lock()
	defer store.Unlock()
	if job, exists := store.jobs[jobID]; exists {
		job.AnalysisID = analysisID
		job.UpdatedAt = time.Now()
	}
}

func (store *JobStore) incrementStepsDone(jobID string) {
	store.Lock()
	defer store.Unlock()
	if job, exists := store.jobs[jobID]; exists {
		job.StepsDone++
		job.UpdatedAt = time.Now()
	}
}

// cancelJob cancels a running job. Returns false when the job has no
// active canceller (not running anymore, or never started).
func cancelJob(jobID string) bool {
	jobCancellersMu.Lock()
	defer jobCancellersMu.Unlock()
	cancel, ok := jobCancellers[jobID]
	if !ok {
		return false
	}
	cancel()
	return true
}

func startWorkerPool(app *App, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go func(workerID int) {
			log.Infof("Worker %d started", workerID)
			for job := range jobQueue {
				log.Infof("Worker %d processing job: %s", workerID, job.ID)
				processJob(app, job)
			}
		}(i)
	}
}

func processJob(app *App, job *Job) {
	jobStore.updateJobStatus(job.ID, "in_progress", "")

	jobCtx, cancel := context.WithCancel(context.Background())
	jobCancellersMu.Lock()
	jobCancellers[job.ID] = cancel
	jobCancellersMu.Unlock()
	defer func() {
		cancel()
		jobCancellersMu.Lock()
		delete(jobCancellers, job.ID)
		jobCancellersMu.Unlock()
	}()

	result, err := app.RunAnalysis(jobCtx, job.Request, func() {
		jobStore.incrementStepsDone(job.ID)
	})
	if err != nil {
		if jobCtx.Err() == context.Canceled {
			jobStore.updateJobStatus(job.ID, "cancelled", "Job cancelled by user")
			log.Infof("Job cancelled: %s", job.ID)
		} else {
			log.Errorf("Error running analysis for job %s: %v", job.ID, err)
			jobStore.updateJobStatus(job.ID, "failed", err.Error())
		}
		return
	}

	record, err := InsertAnalysis(app.Database, result)
	if err != nil {
		log.Errorf("Failed to store analysis for job %s: %v", job.ID, err)
		jobStore.updateJobStatus(job.ID, "failed", err.Error())
		return
	}

	jobStore.setAnalysisID(job.ID, record.ID)
	jobStore.updateJobStatus(job.ID, "completed", "")
	log.Infof("Job completed: %s", job.ID)
}
