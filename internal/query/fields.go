package query

// Per-resource whitelists mapping public json field names to store columns.
// Only these names participate in filtering, sorting and selection; anything
// else in the query string is ignored.

// BootcampFields is the whitelist for bootcamp list endpoints.
var BootcampFields = map[string]string{
	"name":          "name",
	"description":   "description",
	"website":       "website",
	"phone":         "phone",
	"email":         "email",
	"careers":       "careers",
	"averageRating": "average_rating",
	"averageCost":   "average_cost",
	"photo":         "photo",
	"housing":       "housing",
	"jobAssistance": "job_assistance",
	"jobGuarantee":  "job_guarantee",
	"acceptGi":      "accept_gi",
	"user":          "owner_id",
	"createdAt":     "created_at",
}

// CourseFields is the whitelist for course list endpoints.
var CourseFields = map[string]string{
	"title":                "title",
	"description":          "description",
	"weeks":                "weeks",
	"tuition":              "tuition",
	"minimumSkill":         "minimum_skill",
	"scholarshipAvailable": "scholarship_available",
	"bootcamp":             "bootcamp_id",
	"createdAt":            "created_at",
}

// ReviewFields is the whitelist for review list endpoints.
var ReviewFields = map[string]string{
	"title":     "title",
	"text":      "text",
	"rating":    "rating",
	"bootcamp":  "bootcamp_id",
	"user":      "user_id",
	"createdAt": "created_at",
}

// UserFields is the whitelist for the admin user list endpoint.
var UserFields = map[string]string{
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
}
