// Package openapi describes the clinic site's HTTP API as an OpenAPI 3.1
// document, served at /openapi.json and written by `clinicsite openapi`.
package openapi

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"

	"github.com/clinicsite/clinicsite/internal/model"
	"github.com/clinicsite/clinicsite/internal/service"
	"github.com/clinicsite/clinicsite/internal/session"
)

// Info describes the deployment the document is generated for.
type Info struct {
	Title     string
	Version   string
	ServerURL string
}

// componentTypes are the Go types published under #/components/schemas.
var componentTypes = []struct {
	name  string
	value any
}{
	{"Submission", model.Submission{}},
	{"SubmissionPage", model.SubmissionPage{}},
	{"ContactRequest", service.ContactInput{}},
	{"LoginRequest", LoginRequest{}},
	{"SessionInfo", SessionInfo{}},
	{"SuccessResponse", model.SuccessResponse{}},
	{"OKResponse", model.OKResponse{}},
	{"ErrorResponse", model.ErrorResponse{}},
	{"HomePage", model.HomePage{}},
	{"AboutPage", model.AboutPage{}},
	{"ServiceItem", model.ServiceItem{}},
	{"FAQPage", model.FAQPage{}},
	{"Testimonial", model.Testimonial{}},
	{"BlogPost", model.BlogPost{}},
	{"BlogDetail", model.BlogDetail{}},
	{"Gallery", model.Gallery{}},
	{"Album", model.Album{}},
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionInfo describes the current admin session.
type SessionInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expiresAt"`
}

// Generate builds the API document.
func Generate(info Info) (*openapi3.T, error) {
	if info.Title == "" {
		info.Title = "Clinic Site API"
	}
	if info.Version == "" {
		info.Version = "1.0.0"
	}

	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       info.Title,
			Description: "Contact form, admin submissions and read-only brochure content.",
			Version:     info.Version,
		},
	}
	if info.ServerURL != "" {
		doc.Servers = openapi3.Servers{{URL: info.ServerURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{
		"adminSession": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:        "apiKey",
				In:          "cookie",
				Name:        session.CookieName,
				Description: "Signed session cookie issued by POST /api/admin/login.",
			},
		},
	}
	doc.Components = &components

	for _, c := range componentTypes {
		ref, err := openapi3gen.NewSchemaRefForValue(c.value, doc.Components.Schemas)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", c.name, err)
		}
		doc.Components.Schemas[c.name] = ref
	}
	markRequired(doc, "ContactRequest", "name", "email", "phone", "message", "preferredDate", "recaptchaToken")
	markRequired(doc, "LoginRequest", "email", "password")

	doc.Paths = openapi3.NewPaths()
	addPublicPaths(doc)
	addAdminPaths(doc)
	addContentPaths(doc)
	addOpsPaths(doc)
	return doc, nil
}

func markRequired(doc *openapi3.T, name string, fields ...string) {
	if ref := doc.Components.Schemas[name]; ref != nil && ref.Value != nil {
		ref.Value.Required = fields
	}
}

func addPublicPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/contact", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"contact"},
			Summary:     "Submit the contact form",
			Description: "Validates the form, verifies the reCAPTCHA token and stores one submission.",
			OperationID: "submitContact",
			RequestBody: jsonBody("ContactRequest"),
			Responses: responses(
				http.StatusOK, "Submission stored", componentRef("SuccessResponse"),
				http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusTooManyRequests, http.StatusInternalServerError,
			),
		},
	})
}

func addAdminPaths(doc *openapi3.T) {
	secured := openapi3.NewSecurityRequirements().With(openapi3.NewSecurityRequirement().Authenticate("adminSession"))

	doc.Paths.Set("/api/admin/login", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "Sign in and receive the session cookie",
			OperationID: "adminLogin",
			RequestBody: jsonBody("LoginRequest"),
			Responses: responses(
				http.StatusOK, "Signed in; Set-Cookie carries the session", componentRef("OKResponse"),
				http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests, http.StatusInternalServerError,
			),
		},
	})

	logout := &openapi3.Operation{
		Tags:        []string{"admin"},
		Summary:     "Clear the session cookie",
		OperationID: "adminLogout",
		Responses:   responses(http.StatusOK, "Signed out", componentRef("OKResponse")),
	}
	postLogout := *logout
	postLogout.OperationID = "adminLogoutPost"
	doc.Paths.Set("/api/admin/logout", &openapi3.PathItem{Get: logout, Post: &postLogout})

	doc.Paths.Set("/api/admin/session", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "Describe the current session",
			OperationID: "adminSession",
			Security:    secured,
			Responses:   responses(http.StatusOK, "Current session", componentRef("SessionInfo"), http.StatusUnauthorized),
		},
	})

	doc.Paths.Set("/api/admin/submissions", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"admin"},
			Summary:     "List contact submissions, newest first",
			OperationID: "listSubmissions",
			Security:    secured,
			Parameters: openapi3.Parameters{
				intQuery("page", "1-based page number", 1, 1, 0),
				intQuery("pageSize", "Rows per page", 50, 1, 200),
			},
			Responses: responses(
				http.StatusOK, "One page of submissions", componentRef("SubmissionPage"),
				http.StatusUnauthorized, http.StatusInternalServerError,
			),
		},
	})
}

func addContentPaths(doc *openapi3.T) {
	simple := []struct {
		path, id, summary string
		schema            *openapi3.SchemaRef
	}{
		{"/api/content/home", "getHome", "Home page", componentRef("HomePage")},
		{"/api/content/about", "getAbout", "About page", componentRef("AboutPage")},
		{"/api/content/services", "getServices", "Services list", arrayOf("ServiceItem")},
		{"/api/content/faqs", "getFAQs", "FAQ page", componentRef("FAQPage")},
		{"/api/content/testimonials", "getTestimonials", "Approved testimonials, newest first", arrayOf("Testimonial")},
		{"/api/content/blogs", "listBlogs", "Blog posts, newest first", arrayOf("BlogPost")},
		{"/api/content/gallery", "getGallery", "Gallery landing page", componentRef("Gallery")},
	}
	for _, s := range simple {
		doc.Paths.Set(s.path, &openapi3.PathItem{
			Get: &openapi3.Operation{
				Tags:        []string{"content"},
				Summary:     s.summary,
				OperationID: s.id,
				Responses:   responses(http.StatusOK, s.summary, s.schema, http.StatusInternalServerError),
			},
		})
	}

	doc.Paths.Set("/api/content/blogs/{slug}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"content"},
			Summary:     "One blog post with up to three related posts",
			OperationID: "getBlog",
			Parameters:  openapi3.Parameters{slugParam()},
			Responses:   responses(http.StatusOK, "Blog post", componentRef("BlogDetail"), http.StatusNotFound, http.StatusInternalServerError),
		},
	})
	doc.Paths.Set("/api/content/gallery/{slug}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"content"},
			Summary:     "One gallery album",
			OperationID: "getAlbum",
			Parameters:  openapi3.Parameters{slugParam()},
			Responses:   responses(http.StatusOK, "Album", componentRef("Album"), http.StatusNotFound, http.StatusInternalServerError),
		},
	})

	redirect := "Redirect to the CDN URL"
	imageResponses := responses(0, "", nil, http.StatusBadRequest)
	imageResponses.Set("302", &openapi3.ResponseRef{Value: &openapi3.Response{Description: &redirect}})
	doc.Paths.Set("/api/content/image", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"content"},
			Summary:     "Resolve an asset reference to its CDN URL",
			OperationID: "resolveImage",
			Parameters: openapi3.Parameters{
				{Value: openapi3.NewQueryParameter("ref").WithRequired(true).WithSchema(openapi3.NewStringSchema()).WithDescription("Asset reference (image-… or file-…)")},
				intQuery("w", "Width in pixels", 0, 1, 0),
				intQuery("h", "Height in pixels", 0, 1, 0),
				intQuery("q", "Quality (1-100)", 0, 1, 100),
				{Value: openapi3.NewQueryParameter("fit").WithSchema(openapi3.NewStringSchema().WithEnum("clip", "crop", "fill", "fillmax", "max", "scale", "min"))},
			},
			Responses: imageResponses,
		},
	})
}

func addOpsPaths(doc *openapi3.T) {
	status := &openapi3.SchemaRef{Value: openapi3.NewObjectSchema().WithProperty("status", openapi3.NewStringSchema())}
	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: &openapi3.Operation{Tags: []string{"ops"}, OperationID: "healthz", Summary: "Liveness check",
			Responses: responses(http.StatusOK, "Process is up", status)},
	})
	doc.Paths.Set("/readyz", &openapi3.PathItem{
		Get: &openapi3.Operation{Tags: []string{"ops"}, OperationID: "readyz", Summary: "Readiness check",
			Responses: responses(http.StatusOK, "Database reachable", status, http.StatusServiceUnavailable)},
	})

	xml := "Sitemap"
	robots := "robots.txt"
	sitemapResp := openapi3.NewResponses()
	sitemapResp.Set("200", &openapi3.ResponseRef{Value: &openapi3.Response{
		Description: &xml,
		Content:     openapi3.Content{"application/xml": &openapi3.MediaType{Schema: openapi3.NewStringSchema().NewRef()}},
	}})
	robotsResp := openapi3.NewResponses()
	robotsResp.Set("200", &openapi3.ResponseRef{Value: &openapi3.Response{
		Description: &robots,
		Content:     openapi3.Content{"text/plain": &openapi3.MediaType{Schema: openapi3.NewStringSchema().NewRef()}},
	}})
	doc.Paths.Set("/sitemap.xml", &openapi3.PathItem{
		Get: &openapi3.Operation{Tags: []string{"seo"}, OperationID: "sitemap", Summary: "Sitemap", Responses: sitemapResp},
	})
	doc.Paths.Set("/robots.txt", &openapi3.PathItem{
		Get: &openapi3.Operation{Tags: []string{"seo"}, OperationID: "robots", Summary: "Robots rules", Responses: robotsResp},
	})
}

// ─── Builders ───────────────────────────────────────────────────────────────

func componentRef(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func arrayOf(name string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: componentRef(name),
	}}
}

func jsonBody(component string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(componentRef(component)),
	}
}

func slugParam() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: openapi3.NewPathParameter("slug").WithSchema(openapi3.NewStringSchema())}
}

func intQuery(name, desc string, def, minVal, maxVal int) *openapi3.ParameterRef {
	s := openapi3.NewIntegerSchema().WithMin(float64(minVal))
	if maxVal > 0 {
		s = s.WithMax(float64(maxVal))
	}
	if def > 0 {
		s = s.WithDefault(def)
	}
	return &openapi3.ParameterRef{Value: openapi3.NewQueryParameter(name).WithSchema(s).WithDescription(desc)}
}

// responses builds the response map: one success response (skipped when
// status is 0) followed by error statuses sharing the ErrorResponse schema.
func responses(status int, description string, schema *openapi3.SchemaRef, errorStatuses ...int) *openapi3.Responses {
	out := openapi3.NewResponses()
	if status != 0 {
		desc := description
		out.Set(fmt.Sprint(status), &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(schema),
			},
		})
	}
	for _, code := range errorStatuses {
		desc := http.StatusText(code)
		out.Set(fmt.Sprint(code), &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(componentRef("ErrorResponse")),
			},
		})
	}
	return out
}
