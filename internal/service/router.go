package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/foliolabs/folio/internal/domain"
)

const (
	routingTemperature = 0.3
	routingMaxTokens   = 100
	routingTimeout     = 10 * time.Second
)

const routingSystemPrompt = "You are a query routing assistant. Return only valid JSON arrays."

const routingPromptTemplate = `You are a query router for a portfolio chatbot. Analyze the user's question and determine which category or categories of information are needed to answer it.

Available categories:
- About: Personal information, background, summary, location, interests
- Experience: Work experience, job history, positions, internships, roles, responsibilities
- Skills: Technical skills, programming languages, frameworks, tools, soft skills
- Projects: Personal projects, portfolio work, GitHub repositories, applications built
- Education: Academic background, degrees, certifications, courses, learning
- Contact: Contact information, email, phone, LinkedIn, GitHub, social media

User Query: "%s"

Return ONLY a JSON array of relevant category names. Examples:
- "What's your work experience?" -> ["Experience"]
- "Tell me about yourself" -> ["About", "Experience", "Skills"]
- "What React projects have you built?" -> ["Projects", "Skills"]
- "How can I contact you?" -> ["Contact"]
- "What's your education background?" -> ["Education"]
- "Do you have DevOps skills?" -> ["Skills", "Experience", "Projects"]

Return only the JSON array, no other text.`

// Keyword fallback sets, one per category, matched against the lower-cased
// query. Order fixes the category order of the fallback result.
var fallbackRoutes = []struct {
	category domain.Category
	pattern  *regexp.Regexp
}{
	{domain.CategoryExperience, regexp.MustCompile(`\b(work|job|experience|position|role|career|employment|worked|intern)\b`)},
	{domain.CategorySkills, regexp.MustCompile(`\b(skill|technology|tech|framework|language|programming|tool|proficient|knowledge|know)\b`)},
	{domain.CategoryProjects, regexp.MustCompile(`\b(project|portfolio|github|built|created|developed|application|app|website)\b`)},
	{domain.CategoryEducation, regexp.MustCompile(`\b(education|degree|university|school|study|studied|learn|learned|course|certification|graduate)\b`)},
	{domain.CategoryContact, regexp.MustCompile(`\b(contact|email|phone|reach|linkedin|github|social|call|message)\b`)},
	{domain.CategoryAbout, regexp.MustCompile(`\b(about|who|yourself|background|bio|introduction|summary|personal)\b`)},
}

var genericQueryPattern = regexp.MustCompile(`\b(tell me about|describe|what|who are you)\b`)

// broadDefault is the routing result for queries no keyword set matches.
var broadDefault = []domain.Category{
	domain.CategoryAbout,
	domain.CategoryExperience,
	domain.CategorySkills,
}

// ClassifierClient is the completion surface the router classifies with.
type ClassifierClient interface {
	Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error)
}

// Router resolves a free-text question to the knowledge categories worth
// retrieving from. Classification goes through the completion model; any
// failure there degrades to deterministic keyword routing, so Route is total
// and never returns an empty set.
type Router struct {
	client   ClassifierClient
	disabled bool
}

func NewRouter(client ClassifierClient) *Router {
	return &Router{client: client}
}

// NewFallbackRouter builds a router that never calls the classifier.
func NewFallbackRouter() *Router {
	return &Router{disabled: true}
}

// Route classifies the query. The returned slice is always a non-empty
// subset of the fixed category set.
func (r *Router) Route(ctx context.Context, query string) []domain.Category {
	if r.disabled || r.client == nil {
		return FallbackRoute(query)
	}

	ctx, cancel := context.WithTimeout(ctx, routingTimeout)
	defer cancel()

	prompt := fmt.Sprintf(routingPromptTemplate, query)
	content, err := r.client.Complete(ctx, routingSystemPrompt, prompt, routingTemperature, routingMaxTokens)
	if err != nil {
		log.Printf("router: classification failed, using keyword fallback: %v", err)
		return FallbackRoute(query)
	}

	categories, ok := parseCategoryArray(content)
	if !ok || len(categories) == 0 {
		log.Printf("router: unusable classifier output %q, using keyword fallback", content)
		return FallbackRoute(query)
	}

	return categories
}

// parseCategoryArray parses the classifier's reply as a JSON array of
// category names, tolerating markdown code fences and discarding entries
// outside the fixed set.
func parseCategoryArray(content string) ([]domain.Category, bool) {
	clean := strings.TrimSpace(content)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil, false
	}

	var names []string
	if err := json.Unmarshal([]byte(clean), &names); err != nil {
		return nil, false
	}

	seen := make(map[domain.Category]struct{}, len(names))
	categories := make([]domain.Category, 0, len(names))
	for _, name := range names {
		cat, ok := domain.ParseCategory(name)
		if !ok {
			continue
		}
		if _, dup := seen[cat]; dup {
			continue
		}
		seen[cat] = struct{}{}
		categories = append(categories, cat)
	}
	return categories, true
}

// FallbackRoute is the deterministic keyword routing used when
// classification is disabled or fails. Identical input always yields an
// identical, non-empty category set.
func FallbackRoute(query string) []domain.Category {
	lower := strings.ToLower(query)

	seen := make(map[domain.Category]struct{})
	routes := make([]domain.Category, 0, len(fallbackRoutes))
	add := func(cat domain.Category) {
		if _, dup := seen[cat]; dup {
			return
		}
		seen[cat] = struct{}{}
		routes = append(routes, cat)
	}

	for _, route := range fallbackRoutes {
		if route.pattern.MatchString(lower) {
			add(route.category)
		}
	}

	// Generic questions get broader routing on top of any keyword hits.
	if len(routes) == 0 || genericQueryPattern.MatchString(lower) {
		for _, cat := range broadDefault {
			add(cat)
		}
	}

	return routes
}
