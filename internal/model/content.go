package model

import "encoding/json"

// Asset is a media reference as stored by the content API. URL is filled in
// by the content package before a document leaves the server.
type Asset struct {
	Asset AssetRef `json:"asset"`
	Alt   string   `json:"alt,omitempty"`
	URL   string   `json:"url,omitempty"`
}

// AssetRef points at an uploaded image ("image-…") or file ("file-…").
type AssetRef struct {
	Ref string `json:"_ref"`
}

// Slug mirrors the content store's slug object.
type Slug struct {
	Current string `json:"current"`
}

// Banner is one slide of the home page carousel.
type Banner struct {
	BannerTitle       string `json:"bannerTitle"`
	BannerDescription string `json:"bannerDescription"`
	BannerImage       *Asset `json:"bannerImage,omitempty"`
}

// HomeService is a card in the home page services grid.
type HomeService struct {
	ServiceImage       *Asset `json:"serviceImage,omitempty"`
	ServiceText        string `json:"serviceText"`
	ServiceDescription string `json:"serviceDescription"`
	BlogLink           *struct {
		Slug Slug `json:"slug"`
	} `json:"blogLink,omitempty"`
}

// MedicalService is an entry of the home page medical services list.
type MedicalService struct {
	ServiceTitle       string `json:"serviceTitle"`
	ServiceDescription string `json:"serviceDescription"`
	ServiceImage       *Asset `json:"serviceImage,omitempty"`
}

// FAQ is a question/answer pair.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// HomePage aggregates the home document with the FAQ excerpt and testimonials.
type HomePage struct {
	ScrollingBanner            []Banner         `json:"scrollingBanner"`
	HeroImage                  *Asset           `json:"heroImage"`
	Services                   []HomeService    `json:"services"`
	SectionDescription         string           `json:"sectionDescription"`
	MedicalServicesTitle       string           `json:"medicalServicesTitle"`
	MedicalServicesDescription string           `json:"medicalServicesDescription"`
	MedicalServicesList        []MedicalService `json:"medicalServicesList"`
	FAQContent                 []FAQ            `json:"faqContent"`
	Testimonials               []Testimonial    `json:"testimonials"`
}

// FAQPage is the standalone FAQ document.
type FAQPage struct {
	PageTitle string `json:"pageTitle"`
	FAQs      []FAQ  `json:"faqs"`
}

// Testimonial is a patient quote.
type Testimonial struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	Date     string `json:"date,omitempty"`
	Approved bool   `json:"approved,omitempty"`
}

// ServiceItem is an entry of the services page list.
type ServiceItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       *Asset   `json:"image,omitempty"`
	SubServices []string `json:"subServices,omitempty"`
}

// Fact is a highlighted fact on the about page.
type Fact struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       *Asset `json:"image,omitempty"`
}

// Award is an award card on the about page.
type Award struct {
	AwardTitle string `json:"awardTitle"`
	AwardImage *Asset `json:"awardImage,omitempty"`
}

// Hobby is a personal interest card on the about page.
type Hobby struct {
	Title string `json:"title"`
	Image *Asset `json:"image,omitempty"`
}

// AboutPage is the about document.
type AboutPage struct {
	Section1Title            string          `json:"section1Title"`
	Section1BannerImage      *Asset          `json:"section1BannerImage"`
	AboutTitle               string          `json:"aboutDrVanititle"`
	AboutCompleteDescription string          `json:"aboutDrVaniCompleteDescription"`
	HighlightedFacts         []Fact          `json:"highlightedFacts"`
	WhyTitle                 string          `json:"whyDrVaniTitle"`
	WhyDescription           string          `json:"whyDrVaniDescription"`
	WhyImage                 *Asset          `json:"whyDrVaniImage"`
	AwardsSectionTitle       string          `json:"awardsSectionTitle"`
	AwardsSectionDescription string          `json:"awardsSectionDescription"`
	Awards                   []Award         `json:"awards"`
	EducationAndTraining     json.RawMessage `json:"educationAndTraining"`
	Expertise                []string        `json:"expertise"`
	Experience               []string        `json:"experience"`
	Memberships              []string        `json:"memberships"`
	PersonalInterests        []Hobby         `json:"personalInterests"`
}

// BlogPost is a blog article. Body is portable text and passed through as-is.
type BlogPost struct {
	Title       string          `json:"title"`
	Slug        Slug            `json:"slug"`
	PublishedAt string          `json:"publishedAt,omitempty"`
	Excerpt     string          `json:"excerpt,omitempty"`
	CoverImage  *Asset          `json:"coverImage,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// BlogDetail is a post together with up to three related posts.
type BlogDetail struct {
	Post    BlogPost   `json:"post"`
	Related []BlogPost `json:"related"`
}

// GalleryImage is an image on the gallery landing page.
type GalleryImage struct {
	Image       *Asset `json:"image,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Gallery is the gallery landing document.
type Gallery struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Images      []GalleryImage `json:"images"`
}

// Album is a gallery album. Photos may be images or video files.
type Album struct {
	AlbumTitle       string  `json:"albumTitle"`
	AlbumDescription string  `json:"albumDescription,omitempty"`
	Slug             Slug    `json:"slug"`
	Photos           []Asset `json:"photos"`
}
