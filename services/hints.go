package services

import (
	gocontext "context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/lchelper/hints_api/dto"
	"github.com/lchelper/hints_api/shared"
)

// hintsCacheTTL is how long a cached upstream result stays servable.
// Older entries are treated as misses and overwritten on regeneration.
const hintsCacheTTL = 30 * 24 * time.Hour

type hintsUpstream interface {
	GenerateHints(ctx gocontext.Context, problem dto.Problem, platform string) (*dto.HintsPayload, error)
	GenerateExplanation(ctx gocontext.Context, problem dto.Problem, platform string) (*dto.ExplanationPayload, error)
	Name() string
}

type HintsService struct {
	context.DefaultService

	sqlSvc *SqliteService
	monSvc *MonitoringService

	upstream hintsUpstream
}

const HINTS_SVC = "hints_svc"

func (svc HintsService) Id() string {
	return HINTS_SVC
}

func (svc *HintsService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *HintsService) Start() error {
	svc.sqlSvc = svc.Service(SQLITE_SVC).(*SqliteService)
	svc.monSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	if svc.upstream == nil {
		upstream, err := newUpstreamFromEnv()
		if err != nil {
			return err
		}
		svc.upstream = upstream
	}

	log.Printf("Hints upstream provider: %s", svc.upstream.Name())
	return nil
}

func newUpstreamFromEnv() (hintsUpstream, error) {
	provider := os.Getenv("DEFAULT_AI_PROVIDER")
	if provider == "" {
		provider = "gemini"
	}

	client := &http.Client{Timeout: 60 * time.Second}

	switch provider {
	case "gemini":
		key := os.Getenv("GEMINI_API_KEY")
		if key != "" {
			return newGeminiClient(client, key), nil
		}
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key != "" {
			return newOpenAIClient(client, key), nil
		}
	}

	// Fall through to whichever key is present before giving up.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return newGeminiClient(client, key), nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return newOpenAIClient(client, key), nil
	}

	return nil, shared.NewAppError(http.StatusInternalServerError,
		"No AI provider configured. Set GEMINI_API_KEY or OPENAI_API_KEY.")
}

// CacheKey fingerprints a problem. URL and title are lowercased before
// hashing so request casing and stray whitespace collapse to one key;
// the kind prefix keeps hint and explanation entries apart.
func CacheKey(kind, url, title string) string {
	normalized := strings.ToLower(strings.TrimSpace(url) + "_" + strings.TrimSpace(title))
	sum := sha256.Sum256([]byte(kind + ":" + normalized))
	return hex.EncodeToString(sum[:])
}

// cacheEnvelope is the persisted shape of one upstream result.
type cacheEnvelope struct {
	Result       json.RawMessage `json:"result"`
	CachedAt     int64           `json:"cached_at"`
	ProblemTitle string          `json:"problem_title"`
	ProblemURL   string          `json:"problem_url"`
}

func (svc *HintsService) GenerateHints(ctx gocontext.Context, req dto.HintsRequest) (*dto.HintsResponse, error) {
	return svc.generate(ctx, "hints", req, func() (interface{}, error) {
		return svc.upstream.GenerateHints(ctx, req.Problem, platformOrDefault(req.Platform))
	})
}

func (svc *HintsService) ExplainProblem(ctx gocontext.Context, req dto.HintsRequest) (*dto.HintsResponse, error) {
	return svc.generate(ctx, "explain", req, func() (interface{}, error) {
		return svc.upstream.GenerateExplanation(ctx, req.Problem, platformOrDefault(req.Platform))
	})
}

func platformOrDefault(platform string) string {
	if platform == "" {
		return shared.PlatformLeetCode
	}
	return platform
}

func (svc *HintsService) generate(ctx gocontext.Context, kind string, req dto.HintsRequest, call func() (interface{}, error)) (*dto.HintsResponse, error) {
	key := CacheKey(kind, req.Problem.URL, req.Problem.Title)

	if !req.ForceRefresh {
		if resp := svc.lookupCache(kind, key); resp != nil {
			return resp, nil
		}
	}

	start := time.Now()
	result, err := call()
	if err != nil {
		svc.monSvc.RecordUpstreamCall(svc.upstream.Name(), "error", time.Since(start))
		// Never cache a failure; the caller may retry with forceRefresh.
		return nil, shared.NewAppError(http.StatusBadGateway, "Failed to generate "+kind+": "+err.Error())
	}
	svc.monSvc.RecordUpstreamCall(svc.upstream.Name(), "ok", time.Since(start))

	now := time.Now()
	svc.writeCache(kind, key, req.Problem, result, now)

	return &dto.HintsResponse{
		Success:  true,
		Cached:   false,
		CachedAt: now.Unix(),
		Result:   result,
	}, nil
}

// lookupCache returns a servable cached response or nil. Read failures
// and stale entries both count as misses.
func (svc *HintsService) lookupCache(kind, key string) *dto.HintsResponse {
	entry, err := svc.sqlSvc.GetHintsCacheEntry(key)
	if err != nil {
		log.Printf("Hints cache read error (treated as miss): %v", err)
		svc.monSvc.RecordCacheLookup(kind, "error")
		return nil
	}
	if entry == nil {
		svc.monSvc.RecordCacheLookup(kind, "miss")
		return nil
	}
	if time.Since(entry.CreatedAt) > hintsCacheTTL {
		svc.monSvc.RecordCacheLookup(kind, "stale")
		return nil
	}

	var envelope cacheEnvelope
	if err := json.Unmarshal([]byte(entry.HintsData), &envelope); err != nil {
		log.Printf("Hints cache decode error (treated as miss): %v", err)
		svc.monSvc.RecordCacheLookup(kind, "error")
		return nil
	}

	svc.monSvc.RecordCacheLookup(kind, "hit")
	return &dto.HintsResponse{
		Success:  true,
		Cached:   true,
		CachedAt: envelope.CachedAt,
		Result:   envelope.Result,
	}
}

// writeCache is best effort: the response already has its payload, so a
// failed write is logged and swallowed.
func (svc *HintsService) writeCache(kind, key string, problem dto.Problem, result interface{}, now time.Time) {
	raw, err := json.Marshal(result)
	if err != nil {
		log.Printf("Hints cache marshal error (not cached): %v", err)
		return
	}

	data, err := json.Marshal(cacheEnvelope{
		Result:       raw,
		CachedAt:     now.Unix(),
		ProblemTitle: problem.Title,
		ProblemURL:   problem.URL,
	})
	if err != nil {
		log.Printf("Hints cache marshal error (not cached): %v", err)
		return
	}

	if err := svc.sqlSvc.UpsertHintsCacheEntry(key, string(data)); err != nil {
		log.Printf("Hints cache write error (not cached): %v", err)
		return
	}

	log.WithFields(log.Fields{
		"kind":  kind,
		"title": problem.Title,
	}).Debug("Cached upstream result")
}
