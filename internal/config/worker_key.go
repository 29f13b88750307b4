package config

// WorkerKeyStruct names the Redis lists consumed by background workers.
type WorkerKeyStruct struct {
	NotificationQueue string
	PlagiarismQueue   string
}

var WorkerKey = &WorkerKeyStruct{
	NotificationQueue: "notifications_queue",
	PlagiarismQueue:   "plagiarism_checks_queue",
}
