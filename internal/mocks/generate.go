// Package mocks provides gomock implementations of the internal/core ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockJobRepository(ctrl)
//	repo.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/eventdesk/eventdesk-api/internal/core JobRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_maintenance_repository_mock.go github.com/eventdesk/eventdesk-api/internal/core JobMaintenanceRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=event_repository_mock.go github.com/eventdesk/eventdesk-api/internal/core EventRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=evaluation_repository_mock.go github.com/eventdesk/eventdesk-api/internal/core EvaluationRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=certificate_repository_mock.go github.com/eventdesk/eventdesk-api/internal/core CertificateRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=notification_repository_mock.go github.com/eventdesk/eventdesk-api/internal/core NotificationRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/eventdesk/eventdesk-api/internal/core CacheRepository
