package tasks

import "testing"

func TestQueuePath(t *testing.T) {
	config := Config{
		ProjectID: "summary-prod",
		Location:  "us-central1",
		Queue:     "summary-tasks",
	}
	want := "projects/summary-prod/locations/us-central1/queues/summary-tasks"
	if got := config.QueuePath(); got != want {
		t.Errorf("QueuePath() = %q, want %q", got, want)
	}
}
