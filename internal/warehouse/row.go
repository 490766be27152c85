package warehouse

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"podenrich/internal/episode"
	"podenrich/internal/textutil"
)

// Column limits, counted in characters.
const (
	DescriptionLimit = 1024
	TranscriptLimit  = 1048576
	SummaryLimit     = 1048576
)

// Row is the warehouse projection of one enriched episode.
type Row struct {
	Title              string `json:"title" bson:"title" validate:"required"`
	Link               string `json:"link" bson:"link"`
	Description        string `json:"description" bson:"description" validate:"max=1024"`
	Published          string `json:"published" bson:"published"`
	AudioURL           string `json:"audio_url" bson:"audio_url"`
	Transcript         string `json:"transcript" bson:"transcript" validate:"max=1048576"`
	Classification     string `json:"classification" bson:"classification"`
	SummaryAndInsights string `json:"summary_and_insights" bson:"summary_and_insights" validate:"max=1048576"`
}

// Columns lists the table columns in declaration order.
var Columns = []string{
	"title",
	"link",
	"description",
	"published",
	"audio_url",
	"transcript",
	"classification",
	"summary_and_insights",
}

// RowFromRecord projects rec onto the table columns. The labeled transcript
// is stored, not the raw one.
func RowFromRecord(rec *episode.Record) Row {
	return Row{
		Title:              rec.Title,
		Link:               rec.Link,
		Description:        rec.Description,
		Published:          rec.Published,
		AudioURL:           rec.AudioURL,
		Transcript:         rec.Transcript,
		Classification:     rec.Classification,
		SummaryAndInsights: rec.SummaryAndInsights,
	}
}

// Truncate returns a copy with the long columns cut to their limits.
func (r Row) Truncate() Row {
	r.Description = textutil.Truncate(r.Description, DescriptionLimit)
	r.Transcript = textutil.Truncate(r.Transcript, TranscriptLimit)
	r.SummaryAndInsights = textutil.Truncate(r.SummaryAndInsights, SummaryLimit)
	return r
}

// Values returns the column values in Columns order.
func (r Row) Values() []any {
	return []any{
		r.Title,
		r.Link,
		r.Description,
		r.Published,
		r.AudioURL,
		r.Transcript,
		r.Classification,
		r.SummaryAndInsights,
	}
}

// Map returns the row keyed by column name.
func (r Row) Map() map[string]any {
	values := r.Values()
	out := make(map[string]any, len(Columns))
	for i, col := range Columns {
		out[col] = values[i]
	}
	return out
}

// rowValidator holds a singleton validator and translator.
type rowValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *rowValidator
)

func getValidator() *rowValidator {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		// report column names rather than Go field names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			if tag == "" || tag == "-" {
				return fld.Name
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		vSvc = &rowValidator{validate: v, translator: trans}
	})
	return vSvc
}

// Validate checks the structural constraints of the table: a title is
// required and the long columns must fit their limits. The returned error
// wraps ErrMalformed.
func (r Row) Validate() error {
	svc := getValidator()
	err := svc.validate.Struct(r)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Malformed(err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(svc.translator))
	}
	return Malformed(&ValidationError{Messages: msgs, Err: err})
}

// ValidationError lists the translated constraint failures of a row.
type ValidationError struct {
	Messages []string
	Err      error
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
