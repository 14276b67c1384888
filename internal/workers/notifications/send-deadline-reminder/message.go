// internal/workers/notifications/send-deadline-reminder/message.go
package senddeadlinereminder

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"pathfinder-workers/internal/models"
	"pathfinder-workers/internal/service/planner"
)

type reminder struct {
	FirstName   string
	University  string
	Label       string
	Subtext     string
	Pending     []string
	NextStep    string
	PlanURL     string
	PendingText string
}

var emailHTML = template.Must(template.New("reminder").Parse(`<p>Hi {{.FirstName}},</p>
<p><strong>{{.Label}}</strong> at {{.University}}: {{.Subtext}}</p>
{{if .Pending}}<p>Still pending:</p>
<ul>{{range .Pending}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .NextStep}}<p>Next step: {{.NextStep}}</p>{{end}}
{{if .PlanURL}}<p><a href="{{.PlanURL}}">Open your application plan</a></p>{{end}}`))

func newReminder(student *models.StudentProfile, plan *planner.ApplicationPlan, planURLBase string) reminder {
	r := reminder{
		FirstName:  student.FirstName,
		University: plan.UniversityName,
		Label:      plan.WindowStatus.Label,
		Subtext:    plan.WindowStatus.Subtext,
	}
	if r.FirstName == "" {
		r.FirstName = "there"
	}
	if r.University == "" {
		r.University = plan.UniversityID
	}
	for _, item := range plan.Checklist {
		if item.Required && item.Status == models.ChecklistPending {
			r.Pending = append(r.Pending, item.DocumentName)
		}
	}
	for _, step := range plan.Timeline {
		if step.Status != models.TimelineCompleted {
			r.NextStep = step.StepName
			break
		}
	}
	if planURLBase != "" {
		r.PlanURL = planURLBase + "/" + plan.UniversityID
	}
	switch len(r.Pending) {
	case 0:
		r.PendingText = "All documents are in."
	case 1:
		r.PendingText = "1 document pending."
	default:
		r.PendingText = fmt.Sprintf("%d documents pending.", len(r.Pending))
	}
	return r
}

func (r reminder) subject() string {
	return fmt.Sprintf("%s at %s: %s", r.Label, r.University, r.Subtext)
}

func (r reminder) text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n%s at %s: %s\n", r.FirstName, r.Label, r.University, r.Subtext)
	if len(r.Pending) > 0 {
		b.WriteString("\nStill pending:\n")
		for _, doc := range r.Pending {
			fmt.Fprintf(&b, "  - %s\n", doc)
		}
	}
	if r.NextStep != "" {
		fmt.Fprintf(&b, "\nNext step: %s\n", r.NextStep)
	}
	if r.PlanURL != "" {
		fmt.Fprintf(&b, "\nOpen your application plan: %s\n", r.PlanURL)
	}
	return b.String()
}

func (r reminder) html() (string, error) {
	var buf bytes.Buffer
	if err := emailHTML.Execute(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r reminder) sms() string {
	return fmt.Sprintf("%s: %s %s", r.University, r.Subtext, r.PendingText)
}
