// Typed JSON API under /api/v1/, for dashboards and other programmatic consumers.  The forwarding
// endpoints return whatever the replayed command prints; these endpoints return schema-described
// JSON and reject malformed parameters up front.  huma serves the OpenAPI description under
// /api/v1/openapi and interactive docs under /api/v1/docs.
//
// The endpoints run the analysis pipeline in-process: read the cluster's records for the window,
// aggregate steps into jobs, then summarize.  Authentication is the same basic-auth file as for
// the forwarding GET endpoints.

package daemon

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	. "slurmuse/common"
	day "slurmuse/daily"
	"slurmuse/db"
	"slurmuse/sacct"
	"slurmuse/slurmjobs"
	"slurmuse/stats"
)

const (
	apiTitle   = "Slurmuse"
	apiVersion = "1.0.0"
)

func registerAPI(dc *DaemonCommand, mux *http.ServeMux) {
	config := huma.DefaultConfig(apiTitle, apiVersion)
	config.OpenAPIPath = "/api/v1/openapi"
	config.DocsPath = "/api/v1/docs"
	config.SchemasPath = "/api/v1/schemas"
	api := humago.New(mux, config)
	api.UseMiddleware(apiAuthMiddleware(dc, api))

	huma.Register(api, huma.Operation{
		OperationID: "daily-capacity",
		Method:      http.MethodGet,
		Path:        "/api/v1/daily",
		Summary:     "Daily cpu and memory consumption against capacity, by QOS",
	}, dc.apiDaily)
	huma.Register(api, huma.Operation{
		OperationID: "rule-efficiency",
		Method:      http.MethodGet,
		Path:        "/api/v1/rules",
		Summary:     "Job efficiency statistics per snakemake rule",
	}, dc.apiRules)
	huma.Register(api, huma.Operation{
		OperationID: "job-efficiency",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs",
		Summary:     "Per-job resource usage and efficiency",
	}, dc.apiJobs)
}

func apiAuthMiddleware(dc *DaemonCommand, api huma.API) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if dc.getAuthenticator != nil {
			user, pass, ok := parseBasicAuth(ctx.Header("Authorization"))
			if !ok || !dc.getAuthenticator.authenticate(user, pass) {
				if dc.Verbose {
					Log.Warningf("Authorization failed")
				}
				ctx.SetHeader("WWW-Authenticate", "Basic realm=\""+authRealm+"\", charset=\"utf-8\"")
				huma.WriteErr(api, ctx, 401, "Unauthorized")
				return
			}
		}
		next(ctx)
	}
}

func parseBasicAuth(header string) (user, pass string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return
	}
	user, pass, ok = strings.Cut(string(decoded), ":")
	return
}

// Window selection shared by all the endpoints.

type apiWindowParams struct {
	Cluster string `query:"cluster" required:"true" doc:"Name of the cluster whose records to read"`
	From    string `query:"from" doc:"Start of the window, YYYY-MM-DD or Nd/Nw [default: 1d]"`
	To      string `query:"to" doc:"End of the window, YYYY-MM-DD or Nd/Nw [default: now]"`
}

// apiJobsFor runs the common part of the pipeline: resolve the cluster, open its store, read the
// window, and aggregate steps into jobs.  Errors come back as huma status errors.
func (dc *DaemonCommand) apiJobsFor(
	w apiWindowParams,
) (jobs []*slurmjobs.Job, cfg *ClusterConfig, from, to time.Time, err error) {
	clusterName := w.Cluster
	if dc.aliasResolver != nil {
		clusterName = dc.aliasResolver.resolve(clusterName)
	}
	cfg, cerr := MaybeGetConfig(db.MakeConfigFilePath(dc.slurmuseDir, clusterName))
	if cerr != nil {
		err = huma.Error400BadRequest(fmt.Sprintf("Bad cluster %s", w.Cluster), cerr)
		return
	}

	now := time.Now().UTC()
	from = now.AddDate(0, 0, -1)
	if w.From != "" {
		from, cerr = ParseRelativeDateUtc(now, w.From, false)
		if cerr != nil {
			err = huma.Error400BadRequest(fmt.Sprintf("Invalid from argument %s", w.From), cerr)
			return
		}
	}
	to = now
	if w.To != "" {
		to, cerr = ParseRelativeDateUtc(now, w.To, true)
		if cerr != nil {
			err = huma.Error400BadRequest(fmt.Sprintf("Invalid to argument %s", w.To), cerr)
			return
		}
	}
	if from.After(to) {
		err = huma.Error400BadRequest("The from time is greater than the to time")
		return
	}

	store, cerr := db.Open(db.MakeClusterDataPath(dc.slurmuseDir, clusterName), cfg.DatabaseURL)
	if cerr != nil {
		err = huma.Error500InternalServerError("Failed to open record store", cerr)
		return
	}
	defer store.Close()

	records, _, cerr := store.ReadRecords(from, to, false)
	if cerr != nil {
		err = huma.Error500InternalServerError("Failed to read records", cerr)
		return
	}
	records = sacct.SelectSubmitWindow(records, from.Unix(), to.Unix())
	jobs = slurmjobs.Jobs(records, false)
	return
}

// One group of a summary: the group key and the flattened metric_statistic values.  Statistics
// that came out missing are absent, not zero.

type apiGroupSummary struct {
	Group string             `json:"group" doc:"Group key; \"global\" is the all-rows group"`
	Stats map[string]float64 `json:"stats" doc:"metric_statistic to value; missing statistics are absent"`
}

func groupsOf(summary stats.Summary) []apiGroupSummary {
	groups := make([]apiGroupSummary, 0, len(summary))
	for _, k := range summary.Keys() {
		groups = append(groups, apiGroupSummary{Group: k, Stats: summary[k]})
	}
	return groups
}

// GET /api/v1/daily

type apiDailyInput struct {
	apiWindowParams
}

type apiDailyDay struct {
	Date   string            `json:"date" doc:"UTC day, YYYY-MM-DD"`
	Groups []apiGroupSummary `json:"groups" doc:"Per-QOS summaries plus the global group"`
}

type apiDailyOutput struct {
	Body []apiDailyDay
}

func (dc *DaemonCommand) apiDaily(_ context.Context, input *apiDailyInput) (*apiDailyOutput, error) {
	jobs, cfg, from, to, err := dc.apiJobsFor(input.apiWindowParams)
	if err != nil {
		return nil, err
	}
	days := make([]apiDailyDay, 0)
	end := RoundupDay(to)
	for d := ThisDay(from); d.Before(end); d = d.AddDate(0, 0, 1) {
		summary := day.Metrics(jobs, d, cfg.Capacity)
		days = append(days, apiDailyDay{
			Date:   FormatYyyyMmDdUtc(d.Unix()),
			Groups: groupsOf(summary),
		})
	}
	return &apiDailyOutput{Body: days}, nil
}

// GET /api/v1/rules

type apiRulesInput struct {
	apiWindowParams
}

type apiRulesOutput struct {
	Body []apiGroupSummary
}

func (dc *DaemonCommand) apiRules(_ context.Context, input *apiRulesInput) (*apiRulesOutput, error) {
	jobs, _, _, _, err := dc.apiJobsFor(input.apiWindowParams)
	if err != nil {
		return nil, err
	}
	summary := stats.ByGroup(
		jobs,
		func(j *slurmjobs.Job) string { return j.Rule },
		slurmjobs.EfficiencyMetrics,
	)
	return &apiRulesOutput{Body: groupsOf(summary)}, nil
}

// GET /api/v1/jobs

type apiJobsInput struct {
	apiWindowParams
	User    []string `query:"user" doc:"Select jobs by user name (repeatable)"`
	Account []string `query:"account" doc:"Select jobs by account (repeatable)"`
	State   []string `query:"state" doc:"Select jobs by state (repeatable)"`
	QOS     []string `query:"qos" doc:"Select jobs by QOS (repeatable)"`
	Rule    []string `query:"rule" doc:"Select jobs by snakemake rule (repeatable)"`
}

type apiJob struct {
	JobID     string `json:"job_id" doc:"ID of the allocation root"`
	User      string `json:"user,omitempty"`
	Account   string `json:"account,omitempty"`
	State     string `json:"state,omitempty"`
	QOS       string `json:"qos,omitempty"`
	Partition string `json:"partition,omitempty"`
	JobName   string `json:"job_name,omitempty"`
	Rule      string `json:"rule,omitempty"`

	Submit *string `json:"submit,omitempty" doc:"RFC3339 UTC"`
	Start  *string `json:"start,omitempty" doc:"RFC3339 UTC"`
	End    *string `json:"end,omitempty" doc:"RFC3339 UTC"`

	ElapsedSeconds  *int64 `json:"elapsed_seconds,omitempty"`
	WaitSeconds     *int64 `json:"wait_seconds,omitempty"`
	AllocCPUS       *int64 `json:"alloc_cpus,omitempty"`
	TotalCPUSeconds *int64 `json:"total_cpu_seconds,omitempty"`
	ReqMemBytes     *int64 `json:"req_mem_bytes,omitempty"`
	MaxRSSBytes     *int64 `json:"max_rss_bytes,omitempty"`

	MaxRSSGB         *float64 `json:"max_rss_gb,omitempty"`
	CPUEfficiencyPct *float64 `json:"cpu_efficiency_pct,omitempty" doc:"100*TotalCPU/(ElapsedRaw*AllocCPUS)"`
	MemEfficiencyPct *float64 `json:"mem_efficiency_pct,omitempty" doc:"100*MaxRSS/ReqMem"`
}

type apiJobsOutput struct {
	Body []apiJob
}

func (dc *DaemonCommand) apiJobs(_ context.Context, input *apiJobsInput) (*apiJobsOutput, error) {
	jobs, _, _, _, err := dc.apiJobsFor(input.apiWindowParams)
	if err != nil {
		return nil, err
	}
	jobs = slurmjobs.FilterJobs(jobs, slurmjobs.JobFilter{
		User:    input.User,
		Account: input.Account,
		State:   input.State,
		QOS:     input.QOS,
		Rule:    input.Rule,
	}, false)
	body := make([]apiJob, 0, len(jobs))
	for _, j := range jobs {
		body = append(body, apiJob{
			JobID:     j.JobID,
			User:      j.User,
			Account:   j.Account,
			State:     j.State,
			QOS:       j.QOS,
			Partition: j.Partition,
			JobName:   j.JobName,
			Rule:      j.Rule,

			Submit: optTime(j.Submit),
			Start:  optTime(j.Start),
			End:    optTime(j.End),

			ElapsedSeconds:  optInt(j.ElapsedRaw),
			WaitSeconds:     optInt(j.WaitTimeSeconds),
			AllocCPUS:       optInt(j.AllocCPUS),
			TotalCPUSeconds: optInt(j.TotalCPU),
			ReqMemBytes:     optInt(j.ReqMem),
			MaxRSSBytes:     optInt(j.MaxRSS),

			MaxRSSGB:         optFloat(j.MaxRSSGB),
			CPUEfficiencyPct: optFloat(j.CPUEfficiencyPercent),
			MemEfficiencyPct: optFloat(j.MemEfficiencyPercent),
		})
	}
	return &apiJobsOutput{Body: body}, nil
}

func optInt(v OptInt) *int64 {
	if !v.Ok {
		return nil
	}
	n := v.Val
	return &n
}

func optFloat(v OptFloat) *float64 {
	if !v.Ok {
		return nil
	}
	f := v.Val
	return &f
}

func optTime(v OptInt) *string {
	if !v.Ok {
		return nil
	}
	s := time.Unix(v.Val, 0).UTC().Format(time.RFC3339)
	return &s
}
