package surql

import (
	"strings"
	"testing"
	"time"
)

func TestWhere_FirstConditionRendersBare(t *testing.T) {
	var w Where
	w.Add("age > 18")
	assertEqual(t, "WHERE age > 18", w.Render())
}

func TestWhere_ExplicitAndPrefixKept(t *testing.T) {
	var w Where
	w.Add("age > 18").Add("AND country = 'DE'")
	assertEqual(t, "WHERE age > 18 AND country = 'DE'", w.Render())
}

func TestWhere_UnprefixedConditionJoinedWithAnd(t *testing.T) {
	var w Where
	w.Add("age > 18").Add("country = 'DE'")
	assertEqual(t, "WHERE age > 18 AND country = 'DE'", w.Render())
}

func TestWhere_OrPrefixKept(t *testing.T) {
	var w Where
	w.Add("age > 18").Add("OR age < 5")
	assertEqual(t, "WHERE age > 18 OR age < 5", w.Render())
}

func TestWhere_LeadingOperatorStrippedFromFirst(t *testing.T) {
	var w Where
	w.Add("AND age > 18")
	assertEqual(t, "WHERE age > 18", w.Render())
}

func TestWhere_KeywordNeedsWordBoundary(t *testing.T) {
	var w Where
	w.Add("age > 18").Add("ANDROID = 1")
	assertEqual(t, "WHERE age > 18 AND ANDROID = 1", w.Render())
}

func TestWhere_EmptyContributesNothing(t *testing.T) {
	var w Where
	if !w.IsEmpty() {
		t.Error("fresh clause should be empty")
	}
	assertEqual(t, "", w.Render())
	w.Add("  ")
	if !w.IsEmpty() {
		t.Error("blank fragment should be ignored")
	}
}

func TestGroupBy_JoinsFields(t *testing.T) {
	var g GroupBy
	g.Add("country", "city")
	assertEqual(t, "GROUP BY country, city", g.Render())
}

func TestOrderBy_DefaultsAscending(t *testing.T) {
	var o OrderBy
	o.Set("age")
	assertEqual(t, "ORDER BY age ASC", o.Render())
}

func TestOrderBy_DirectionSettableAfterField(t *testing.T) {
	var o OrderBy
	o.Set("age")
	o.Dir(Desc)
	assertEqual(t, "ORDER BY age DESC", o.Render())
}

func TestLimitStart_LimitAlone(t *testing.T) {
	var l LimitStart
	l.SetLimit(10)
	assertEqual(t, "LIMIT 10", l.Render())
}

func TestLimitStart_StartOnlyWhenPositive(t *testing.T) {
	var l LimitStart
	l.SetLimit(10).SetStart(0)
	assertEqual(t, "LIMIT 10", l.Render())
	l.SetStart(20)
	assertEqual(t, "LIMIT 10 START 20", l.Render())
}

func TestFetchOmitSplit_RenderKeywords(t *testing.T) {
	var f Fetch
	f.Add("profile")
	assertEqual(t, "FETCH profile", f.Render())

	var o Omit
	o.Add("password", "secret")
	assertEqual(t, "OMIT password, secret", o.Render())

	var s Split
	s.Add("tags")
	assertEqual(t, "SPLIT tags", s.Render())
}

func TestTimeout_WholeSeconds(t *testing.T) {
	var tm Timeout
	tm.Set(2 * time.Second)
	assertEqual(t, "TIMEOUT 2s", tm.Render())
}

func TestTimeout_SecondsWithMillisRemainder(t *testing.T) {
	var tm Timeout
	tm.Set(2*time.Second + 500*time.Millisecond)
	assertEqual(t, "TIMEOUT 2s500ms", tm.Render())
}

func TestTimeout_SubSecond(t *testing.T) {
	var tm Timeout
	tm.Set(750 * time.Millisecond)
	assertEqual(t, "TIMEOUT 0s750ms", tm.Render())
}

func TestTimeout_ZeroIsEmpty(t *testing.T) {
	var tm Timeout
	tm.Set(0)
	if !tm.IsEmpty() {
		t.Error("zero duration should leave the clause empty")
	}
	assertEqual(t, "", tm.Render())
}

func TestExplain_Variants(t *testing.T) {
	var e Explain
	assertEqual(t, "", e.Render())
	e.Set()
	assertEqual(t, "EXPLAIN", e.Render())
	e.SetFull()
	assertEqual(t, "EXPLAIN FULL", e.Render())
}

func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("expected %q to contain %q", s, substr)
	}
}

func assertNotContains(t *testing.T, s, substr string) {
	t.Helper()
	if strings.Contains(s, substr) {
		t.Errorf("expected %q to NOT contain %q", s, substr)
	}
}

func assertEqual(t *testing.T, expected, actual string) {
	t.Helper()
	if expected != actual {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, actual)
	}
}
