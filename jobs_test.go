package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStoreLifecycle(t *testing.T) {
	store := &JobStore{jobs: make(map[string]*Job)}

	job := &Job{
		ID:          generateJobID(),
		CompanyName: "Acme",
		Status:      "pending",
		CreatedAt:   time.Now(),
	}
	store.addJob(job)

	got, exists := store.getJob(job.ID)
	require.True(t, exists)
	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, totalAnalysisSteps, got.TotalSteps)
	assert.Zero(t, got.StepsDone)

	store.updateJobStatus(job.ID, "in_progress", "")
	store.incrementStepsDone(job.ID)
	store.incrementStepsDone(job.ID)

	got, _ = store.getJob(job.ID)
	assert.Equal(t, "in_progress", got.Status)
	assert.Equal(t, 2, got.StepsDone)

	store.updateJobStatus(job.ID, "failed", "something broke")
	got, _ = store.getJob(job.ID)
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, "something broke", got.Error)
}

func TestJobStoreGetAllJobsNewestFirst(t *testing.T) {
	store := &JobStore{jobs: make(map[string]*Job)}

	older := &Job{ID: "a", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &Job{ID: "b", CreatedAt: time.Now()}
	store.addJob(older)
	store.addJob(newer)

	jobs := store.GetAllJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "b", jobs[0].ID)
	assert.Equal(t, "a", jobs[1].ID)
}

func TestCancelJobWithoutActiveRun(t *testing.T) {
	assert.False(t, cancelJob("no-such-job"))
}

func TestProcessJobSuccess(t *testing.T) {
	setupTestTemplates(t)
	db := setupTestDB(t)

	mock := &mockLLM{
		response:     "report text",
		jsonResponse: testProfileJSON,
	}
	app := &App{Database: db, LLM: mock, SearchLLM: mock}

	job := &Job{
		ID:          generateJobID(),
		CompanyName: "Acme",
		Request: SubmitAnalysisRequest{
			CompanyName: "Acme",
			CEOName:     "Jo Doe",
		},
		Status:    "pending",
		CreatedAt: time.Now(),
	}
	jobStore.addJob(job)

	processJob(app, job)

	got, exists := jobStore.getJob(job.ID)
	require.True(t, exists)
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, totalAnalysisSteps, got.StepsDone)
	require.NotZero(t, got.AnalysisID)

	record, err := GetAnalysis(db, got.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", record.CompanyName)
	assert.Equal(t, "report text", record.FullReport)
}

func TestProcessJobFailure(t *testing.T) {
	setupTestTemplates(t)
	db := setupTestDB(t)

	// Unusable JSON in both the profile call and the repair attempt
	mock := &mockLLM{response: "not json", jsonResponse: "not json"}
	app := &App{Database: db, LLM: mock, SearchLLM: mock}

	job := &Job{
		ID:          generateJobID(),
		CompanyName: "Acme",
		Request: SubmitAnalysisRequest{
			CompanyName: "Acme",
			CEOName:     "Jo Doe",
		},
		Status:    "pending",
		CreatedAt: time.Now(),
	}
	jobStore.addJob(job)

	processJob(app, job)

	got, _ := jobStore.getJob(job.ID)
	assert.Equal(t, "failed", got.Status)
	assert.Contains(t, got.Error, "profile generation failed")
}
