package catalog

import (
	"errors"
	"net/url"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func scenarioPrograms() []Program {
	return []Program{
		{ID: "a", AgeRange: "6–9", Topics: []string{"Robotics", "Coding"}, Format: FormatInPerson},
		{ID: "b", AgeRange: "10–13", Topics: []string{"Coding"}, Format: FormatOnline},
		{ID: "c", AgeRange: "6–9", Topics: []string{"Science"}, Format: FormatInPerson},
		{ID: "d", AgeRange: "3–5", Topics: []string{"Math"}, Format: FormatHybrid},
	}
}

func ids(programs []Program) []string {
	out := make([]string, 0, len(programs))
	for _, p := range programs {
		out = append(out, p.ID)
	}
	return out
}

func TestVisibleProgramsEmptyFilterIsIdentity(t *testing.T) {
	t.Parallel()

	programs := scenarioPrograms()
	got := VisiblePrograms(programs, NewFilter())
	require.Equal(t, []string{"a", "b", "c", "d"}, ids(got))
}

func TestVisibleProgramsSingleAgeRange(t *testing.T) {
	t.Parallel()

	f, err := NewFilter().ToggleAgeRange("6–9")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, ids(VisiblePrograms(scenarioPrograms(), f)))
}

func TestVisibleProgramsTopicIntersection(t *testing.T) {
	t.Parallel()

	f, err := NewFilter().SetTopics("Coding", "Math")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "d"}, ids(VisiblePrograms(scenarioPrograms(), f)))
}

func TestVisibleProgramsFormat(t *testing.T) {
	t.Parallel()

	f, err := NewFilter().SetFormat(FormatInPerson)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, ids(VisiblePrograms(scenarioPrograms(), f)))

	f, err = f.SetFormat(FormatHybrid)
	require.NoError(t, err)
	require.Equal(t, []string{"d"}, ids(VisiblePrograms(scenarioPrograms(), f)))
}

// Every combination of one-or-none per dimension must match the brute-force predicate.
func TestVisibleProgramsAllCombinations(t *testing.T) {
	t.Parallel()

	programs := scenarioPrograms()
	ageSets := [][]string{nil, {"6–9"}, {"3–5", "10–13"}, {"14+"}}
	topicSets := [][]string{nil, {"Coding"}, {"Science", "Math"}, {"Maker"}}

	for _, ages := range ageSets {
		for _, topics := range topicSets {
			for _, format := range FormatOptions {
				f, err := NewFilter().SetAgeRanges(ages...)
				require.NoError(t, err)
				f, err = f.SetTopics(topics...)
				require.NoError(t, err)
				f, err = f.SetFormat(format)
				require.NoError(t, err)

				var want []string
				for _, p := range programs {
					ageOK := len(ages) == 0 || slices.Contains(ages, p.AgeRange)
					topicOK := len(topics) == 0 || slices.ContainsFunc(p.Topics, func(t string) bool { return slices.Contains(topics, t) })
					formatOK := format == FormatAll || p.Format == format
					if ageOK && topicOK && formatOK {
						want = append(want, p.ID)
					}
				}
				got := ids(VisiblePrograms(programs, f))
				if len(want) == 0 {
					require.Empty(t, got, "ages=%v topics=%v format=%s", ages, topics, format)
					continue
				}
				require.Equal(t, want, got, "ages=%v topics=%v format=%s", ages, topics, format)
			}
		}
	}
}

func TestToggleAgeRangeIsInvolution(t *testing.T) {
	t.Parallel()

	start, err := NewFilter().SetTopics("Science")
	require.NoError(t, err)

	once, err := start.ToggleAgeRange("10–13")
	require.NoError(t, err)
	require.True(t, once.HasAgeRange("10–13"))

	twice, err := once.ToggleAgeRange("10–13")
	require.NoError(t, err)
	require.True(t, twice.Equal(start))
	require.Empty(t, twice.AgeRanges())
}

func TestToggleKeepsSetSemantics(t *testing.T) {
	t.Parallel()

	f, err := NewFilter().SetAgeRanges("14+", "3–5", "3–5")
	require.NoError(t, err)
	require.Equal(t, []string{"3–5", "14+"}, f.AgeRanges())

	f, err = f.ToggleTopic("Maker")
	require.NoError(t, err)
	f, err = f.ToggleTopic("Coding")
	require.NoError(t, err)
	require.Equal(t, []string{"Coding", "Maker"}, f.Topics())
}

func TestInvalidFilterValuesAreRejected(t *testing.T) {
	t.Parallel()

	_, err := NewFilter().ToggleAgeRange("99+")
	require.True(t, errors.Is(err, ErrInvalidFilter))

	_, err = NewFilter().SetTopics("Coding", "Painting")
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = NewFilter().SetFormat("carrier-pigeon")
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = ParseFilter(url.Values{QueryAge: {"all-ages"}})
	require.ErrorIs(t, err, ErrInvalidFilter)
}

func TestFilterQueryRoundTrip(t *testing.T) {
	t.Parallel()

	f, err := NewFilter().SetAgeRanges("6–9", "14+")
	require.NoError(t, err)
	f, err = f.SetTopics("Robotics")
	require.NoError(t, err)
	f, err = f.SetFormat(FormatOnline)
	require.NoError(t, err)

	parsed, err := ParseFilter(f.Query())
	require.NoError(t, err)
	require.True(t, parsed.Equal(f))

	require.Empty(t, NewFilter().Query().Encode())
	require.True(t, NewFilter().Empty())
}

func TestParseFilterNormalizesFormatCase(t *testing.T) {
	t.Parallel()

	f, err := ParseFilter(url.Values{QueryFormat: {"Online"}, QueryTopic: {" "}})
	require.NoError(t, err)
	require.Equal(t, FormatOnline, f.Format())
	require.Empty(t, f.Topics())
}
