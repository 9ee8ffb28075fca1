package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/model"
)

func setupTestConflictService() (ConflictService, *memStore, model.Course) {
	store := newMemStore()
	course := seedCourse(store, "cse116",
		member("prof@buffalo.edu", "Prof", model.RoleInstructor, 0),
		member("alice@buffalo.edu", "Alice", model.RoleAssistant, 4),
	)
	return NewConflictService(store.repository(), zap.NewNop()), store, course
}

func TestConflictCreate(t *testing.T) {
	svc, _, _ := setupTestConflictService()
	ctx := context.Background()

	resp, err := svc.Create(ctx, "cse116", profActor, &dto.CreateConflictRequest{GraderEmail: "Alice@Buffalo.edu", StudentEmail: "roommate@buffalo.edu"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.GraderEmail != "alice@buffalo.edu" {
		t.Errorf("grader = %s, want normalized email", resp.GraderEmail)
	}

	_, err = svc.Create(ctx, "cse116", profActor, &dto.CreateConflictRequest{GraderEmail: "alice@buffalo.edu", StudentEmail: "roommate@buffalo.edu"})
	var dup *DuplicateConflictError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want *DuplicateConflictError", err)
	}
	if dup.Grader != "alice@buffalo.edu" || dup.Student != "roommate@buffalo.edu" || !errors.Is(err, ErrDuplicateConflict) {
		t.Errorf("dup = %+v", dup)
	}

	list, err := svc.List(ctx, "cse116", profActor)
	if err != nil || len(list) != 1 {
		t.Errorf("List = %v, %v; want one conflict", list, err)
	}
}

func TestConflictCreate_Rejections(t *testing.T) {
	svc, _, _ := setupTestConflictService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "cse116", profActor, &dto.CreateConflictRequest{GraderEmail: "a@buffalo.edu", StudentEmail: "A@buffalo.edu"})
	if !errors.Is(err, ErrSelfConflict) {
		t.Errorf("err = %v, want ErrSelfConflict", err)
	}

	_, err = svc.Create(ctx, "cse116", taActor, &dto.CreateConflictRequest{GraderEmail: "alice@buffalo.edu", StudentEmail: "s@buffalo.edu"})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}

	_, err = svc.Create(ctx, "cse999", adminActor, &dto.CreateConflictRequest{GraderEmail: "alice@buffalo.edu", StudentEmail: "s@buffalo.edu"})
	if !errors.Is(err, ErrRosterNotFound) {
		t.Errorf("err = %v, want ErrRosterNotFound", err)
	}
}

func TestConflictCreate_PersistenceFailure(t *testing.T) {
	svc, store, _ := setupTestConflictService()
	store.failOn["conflict.Create"] = errors.New("timeout")

	_, err := svc.Create(context.Background(), "cse116", profActor, &dto.CreateConflictRequest{GraderEmail: "alice@buffalo.edu", StudentEmail: "s@buffalo.edu"})
	if !errors.Is(err, ErrPersistence) {
		t.Errorf("err = %v, want ErrPersistence", err)
	}
}

func TestConflictDelete(t *testing.T) {
	svc, store, course := setupTestConflictService()
	seedConflict(store, course.CourseID, "alice@buffalo.edu", "s@buffalo.edu")
	list, _ := svc.List(context.Background(), "cse116", profActor)

	if err := svc.Delete(context.Background(), "cse116", profActor, list[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), "cse116", profActor, list[0].ID); !errors.Is(err, ErrConflictNotFound) {
		t.Errorf("second delete err = %v, want ErrConflictNotFound", err)
	}
}
