package surql

import (
	"errors"
	"testing"
	"time"
)

func TestSelect_DefaultsToStar(t *testing.T) {
	q, err := Select("user").Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assertEqual(t, "SELECT * FROM user", q)
}

func TestSelect_ProjectionAndThingTarget(t *testing.T) {
	q, err := Select(NewThing("user", "alice")).Fields("name", "age").Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assertEqual(t, "SELECT name, age FROM user:alice", q)
}

func TestSelect_Only(t *testing.T) {
	q, err := Select("user:alice").Only().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assertEqual(t, "SELECT * FROM ONLY user:alice", q)
}

// Clauses must render in the grammar's order no matter how the builder
// was populated.
func TestSelect_ClauseOrderIndependentOfCallOrder(t *testing.T) {
	q, err := Select("user").
		ExplainFull().
		Timeout(2 * time.Second).
		Split("tags").
		Omit("password").
		Fetch("profile").
		Start(20).
		Limit(10).
		OrderByDesc("age").
		GroupBy("country").
		Where("age > 18").
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "SELECT * FROM user WHERE age > 18 GROUP BY country ORDER BY age DESC " +
		"LIMIT 10 START 20 FETCH profile OMIT password SPLIT tags TIMEOUT 2s EXPLAIN FULL"
	assertEqual(t, want, q)
}

func TestSelect_WhereCondComposes(t *testing.T) {
	q, err := Select("user").
		WhereCond(Gt("age", 18), Eq("country", "DE")).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assertEqual(t, `SELECT * FROM user WHERE age > 18 AND country = "DE"`, q)
}

func TestSelect_EmptyClausesContributeNothing(t *testing.T) {
	q, err := Select("user").GroupBy().Fetch().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	assertEqual(t, "SELECT * FROM user", q)
}

func TestSelect_MissingTarget(t *testing.T) {
	_, err := Select("").Build()
	var mt *MissingTargetError
	if !errors.As(err, &mt) {
		t.Fatalf("expected MissingTargetError, got %v", err)
	}
	assertContains(t, mt.Error(), "from target")
}
