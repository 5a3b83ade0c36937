package models

const InquiryStatusNew = "new"

// InquiryRecord is the persisted shape of an inquiry submission.
type InquiryRecord struct {
	ID       string          `json:"id"`
	Package  InquiryPackage  `json:"package"`
	Customer InquiryCustomer `json:"customer"`
	Travel   InquiryTravel   `json:"travel"`
	Inquiry  InquiryDetails  `json:"inquiry"`
}

type InquiryPackage struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Dates    string `json:"dates"`
	Duration string `json:"duration"`
}

type InquiryCustomer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FullName  string `json:"fullName"`
}

type InquiryTravel struct {
	NumberOfPeople         string `json:"numberOfPeople"`
	PreferredContactMethod string `json:"preferredContactMethod"`
	TravelExperience       string `json:"travelExperience"`
	SpecialRequirements    string `json:"specialRequirements"`
}

type InquiryDetails struct {
	Message     string `json:"message"`
	HearAboutUs string `json:"hearAboutUs"`
	SubmittedAt string `json:"submittedAt"`
	Status      string `json:"status"`
}

// InquirySubmission is the flat form body posted by the inquiry modal.
type InquirySubmission struct {
	PackageID              string `json:"packageId"`
	PackageName            string `json:"packageName"`
	PackagePrice           string `json:"packagePrice"`
	PackageDates           string `json:"packageDates"`
	PackageDuration        string `json:"packageDuration"`
	FirstName              string `json:"firstName"`
	LastName               string `json:"lastName"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone"`
	NumberOfPeople         string `json:"numberOfPeople"`
	PreferredContactMethod string `json:"preferredContactMethod"`
	Message                string `json:"message"`
	HearAboutUs            string `json:"hearAboutUs"`
	TravelExperience       string `json:"travelExperience"`
	SpecialRequirements    string `json:"specialRequirements"`
	SubmittedAt            string `json:"submittedAt"`
}
