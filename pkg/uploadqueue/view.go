package uploadqueue

// Groups partitions a snapshot for display.
type Groups struct {
	Uploading []Task `json:"uploading"`
	Queued    []Task `json:"queued"`
	Completed []Task `json:"completed"` // success and error
}

// Group splits tasks by status, keeping each group's relative order.
func Group(tasks []Task) Groups {
	g := Groups{
		Uploading: []Task{},
		Queued:    []Task{},
		Completed: []Task{},
	}
	for _, t := range tasks {
		switch t.Status {
		case StatusUploading:
			g.Uploading = append(g.Uploading, t)
		case StatusQueued:
			g.Queued = append(g.Queued, t)
		case StatusSuccess, StatusError:
			g.Completed = append(g.Completed, t)
		}
	}
	return g
}

// Len returns the total number of grouped tasks.
func (g Groups) Len() int {
	return len(g.Uploading) + len(g.Queued) + len(g.Completed)
}
