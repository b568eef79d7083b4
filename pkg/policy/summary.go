package policy

import (
	"fmt"
	"sort"

	"github.com/jinzhu/inflection"

	"github.com/constrictdb/constrict/pkg/models"
)

// SummaryFormatter renders the report as an ordered list of sentences. A
// contradiction alert always leads when present; the remaining sentences are
// ordered by descending affected-column count with ties broken by a fixed
// category priority, so the same report always reads the same way.
type SummaryFormatter struct{}

// NewSummaryFormatter returns a stateless formatter.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

// Category priorities for tie-breaking, lower is earlier.
const (
	priorityMandatory = iota
	priorityForeignKey
	priorityPrimaryKey
	priorityUnique
	priorityPhysical
	priorityRemediation
	priorityProfileMissing
)

type summarySentence struct {
	count    int
	priority int
	text     string
}

// Format builds the ordered summary. orphanColumns and contradictionColumns
// feed the leading alert; everything else derives from the report.
func (f *SummaryFormatter) Format(report *models.PolicyDecisionReport, orphanColumns, contradictionColumns int) []string {
	var out []string

	if alert := f.contradictionAlert(orphanColumns, contradictionColumns); alert != "" {
		out = append(out, alert)
	}

	sentences := []summarySentence{
		{
			count:    report.NullabilityRationales[models.RationaleMandatory],
			priority: priorityMandatory,
			text: fmt.Sprintf("%s %s mandatory in the logical model",
				countNoun(report.NullabilityRationales[models.RationaleMandatory], "column"),
				pluralVerb(report.NullabilityRationales[models.RationaleMandatory], "is", "are")),
		},
		{
			count:    report.Counts.ForeignKeysCreated,
			priority: priorityForeignKey,
			text: fmt.Sprintf("%s will be created",
				countNoun(report.Counts.ForeignKeysCreated, "foreign key constraint")),
		},
		{
			count:    report.NullabilityRationales[models.RationalePrimaryKey],
			priority: priorityPrimaryKey,
			text: fmt.Sprintf("%s %s primary keys and stay NOT NULL",
				countNoun(report.NullabilityRationales[models.RationalePrimaryKey], "column"),
				pluralVerb(report.NullabilityRationales[models.RationalePrimaryKey], "is", "are")),
		},
		{
			count:    report.Counts.UniqueIndexesEnforced,
			priority: priorityUnique,
			text: fmt.Sprintf("%s will be enforced",
				countNoun(report.Counts.UniqueIndexesEnforced, "unique index")),
		},
		{
			count:    report.NullabilityRationales[models.RationalePhysicalNotNull],
			priority: priorityPhysical,
			text: fmt.Sprintf("%s %s already NOT NULL on disk",
				countNoun(report.NullabilityRationales[models.RationalePhysicalNotNull], "column"),
				pluralVerb(report.NullabilityRationales[models.RationalePhysicalNotNull], "is", "are")),
		},
		{
			count:    report.Counts.RemediationRequired,
			priority: priorityRemediation,
			text: fmt.Sprintf("%s %s data remediation before applying",
				countNoun(report.Counts.RemediationRequired, "decision"),
				pluralVerb(report.Counts.RemediationRequired, "requires", "require")),
		},
		{
			count:    report.NullabilityRationales[models.RationaleProfileMissing],
			priority: priorityProfileMissing,
			text: fmt.Sprintf("%s %s tightening signals but no profiling evidence",
				countNoun(report.NullabilityRationales[models.RationaleProfileMissing], "column"),
				pluralVerb(report.NullabilityRationales[models.RationaleProfileMissing], "carries", "carry")),
		},
	}

	sort.SliceStable(sentences, func(i, j int) bool {
		if sentences[i].count != sentences[j].count {
			return sentences[i].count > sentences[j].count
		}
		return sentences[i].priority < sentences[j].priority
	})

	for _, s := range sentences {
		if s.count > 0 {
			out = append(out, s.text)
		}
	}

	if len(out) == 0 {
		out = append(out, "no tightening decisions apply to this model")
	}
	return out
}

// contradictionAlert leads the summary whenever the model's promises and the
// profiled data disagree.
func (f *SummaryFormatter) contradictionAlert(orphanColumns, contradictionColumns int) string {
	switch {
	case contradictionColumns > 0 && orphanColumns > 0:
		return fmt.Sprintf("attention: %s %s NULL rows and %s %s orphaned rows; remediate before tightening",
			countNoun(contradictionColumns, "mandatory column"),
			pluralVerb(contradictionColumns, "holds", "hold"),
			countNoun(orphanColumns, "reference column"),
			pluralVerb(orphanColumns, "has", "have"))
	case contradictionColumns > 0:
		return fmt.Sprintf("attention: %s %s NULL rows despite the model's mandatory flag; remediate before tightening",
			countNoun(contradictionColumns, "mandatory column"),
			pluralVerb(contradictionColumns, "holds", "hold"))
	case orphanColumns > 0:
		return fmt.Sprintf("attention: %s %s orphaned rows; constraints cannot be trusted until remediated",
			countNoun(orphanColumns, "reference column"),
			pluralVerb(orphanColumns, "has", "have"))
	default:
		return ""
	}
}

// countNoun renders "1 column" / "3 columns", pluralizing the trailing word.
func countNoun(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %s", n, inflection.Plural(noun))
}

func pluralVerb(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
