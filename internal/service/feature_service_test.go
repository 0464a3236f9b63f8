package service

import (
	"context"
	"testing"

	"github.com/sandeepkv93/media-request-tracker/internal/repository"
)

func TestFeatureServiceCreateValidation(t *testing.T) {
	svc := NewFeatureService(repository.NewFeatureRepository(newDBForTest(t)), NewSanitizer())
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateFeatureInput
		want string
	}{
		{name: "missing", in: CreateFeatureInput{Page: "/dashboard", Selector: "#x", Title: "New"}, want: "All fields are required"},
		{name: "short title", in: CreateFeatureInput{Page: "/dashboard", Selector: "#x", Title: "ab", Description: "long enough text"}, want: "Title must be at least 3 characters long"},
		{name: "short description", in: CreateFeatureInput{Page: "/dashboard", Selector: "#x", Title: "abc", Description: "short"}, want: "Description must be at least 10 characters long"},
		{name: "markup stripped", in: CreateFeatureInput{Page: "/dashboard", Selector: "#x", Title: "<i></i>", Description: "long enough text"}, want: "All fields are required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.in); UserMessage(err, "") != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestFeatureServiceDismissalLifecycle(t *testing.T) {
	svc := NewFeatureService(repository.NewFeatureRepository(newDBForTest(t)), NewSanitizer())
	ctx := context.Background()

	dash, err := svc.Create(ctx, CreateFeatureInput{Page: "/dashboard", Selector: "#requests", Title: "Requests", Description: "Track your requests here"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	settings, err := svc.Create(ctx, CreateFeatureInput{Page: "/settings", Selector: "#email", Title: "Email", Description: "Add an email for notifications"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, _ := svc.ListUndismissed(ctx, 1, "/dashboard")
	if len(got) != 1 || got[0].ID != dash.ID {
		t.Fatalf("expected dashboard feature only, got %+v", got)
	}
	if err := svc.Dismiss(ctx, 1, dash.ID); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if err := svc.Dismiss(ctx, 1, dash.ID); err != nil {
		t.Fatalf("second dismiss must be a no-op: %v", err)
	}
	if got, _ := svc.ListUndismissed(ctx, 1, ""); len(got) != 1 || got[0].ID != settings.ID {
		t.Fatalf("expected settings feature only, got %+v", got)
	}
	if got, _ := svc.ListUndismissed(ctx, 2, ""); len(got) != 2 {
		t.Fatalf("dismissals are per user, got %d", len(got))
	}

	if err := svc.ClearDismissals(ctx, dash.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := svc.ListUndismissed(ctx, 1, ""); len(got) != 2 {
		t.Fatalf("expected both features after reset, got %d", len(got))
	}

	if err := svc.Deactivate(ctx, settings.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if active, _ := svc.ListActive(ctx); len(active) != 1 {
		t.Fatalf("expected one active feature, got %d", len(active))
	}
	if err := svc.Deactivate(ctx, 999); UserMessage(err, "") != "Feature not found" {
		t.Fatalf("expected not found, got %v", err)
	}
}
