package handlers

import (
	"fmt"
	"net/http"
	"time"
)

// PageHandler serves the protected content pages. The page bodies carry the
// site's subject matter; every payload includes the current date, which the
// frontend renders in the footer.
type PageHandler struct{}

// NewPageHandler creates a new PageHandler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// barleyBirthday is Barley's hardcoded date of birth.
var barleyBirthday = time.Date(2017, time.April, 5, 0, 0, 0, 0, time.UTC)

// Page is the response shape for a content page.
type Page struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Date  string `json:"date"`
}

func page(title, body string) Page {
	return Page{
		Title: title,
		Body:  body,
		Date:  time.Now().Format("2006-01-02 15:04:05"),
	}
}

// Home serves the home page, including Barley's current age.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	body := fmt.Sprintf("Welcome! This site is all about Barley, a %d year old dog with strong opinions about squirrels.", calculateAge(barleyBirthday))
	writeJSON(w, http.StatusOK, page("Home", body))
}

// About serves the about page.
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, page("About", "Barley was born on April 5, 2017 and has been supervising the household ever since."))
}

// Contact serves the contact page.
func (h *PageHandler) Contact(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, page("Contact", "Questions about Barley? Leave a note with the front desk."))
}

// Menu serves the menu page.
func (h *PageHandler) Menu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, page("Menu", "Home, About, Contact, Menu, Update Password, Logout."))
}

// calculateAge computes full years elapsed since the birthday.
func calculateAge(birthday time.Time) int {
	now := time.Now()
	age := now.Year() - birthday.Year()
	if now.Month() < birthday.Month() || (now.Month() == birthday.Month() && now.Day() < birthday.Day()) {
		age--
	}
	return age
}
