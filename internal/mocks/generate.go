// Package mocks provides gomock implementations of the middleware ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=auth_mock.go github.com/suteetoe/jobboard/internal/middleware TokenValidator,PrincipalResolver,Limiter
