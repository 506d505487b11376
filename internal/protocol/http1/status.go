package http1

import "strconv"

// Status is an HTTP response status code.
type Status int

const (
	StatusOK                  Status = 200
	StatusFound               Status = 302
	StatusBadRequest          Status = 400
	StatusNotFound            Status = 404
	StatusInternalServerError Status = 500
)

var reasonPhrases = map[Status]string{
	StatusOK:                  "OK",
	StatusFound:               "Found",
	StatusBadRequest:          "Bad Request",
	StatusNotFound:            "Not Found",
	StatusInternalServerError: "Internal Server Error",
}

// Code returns the numeric code.
func (s Status) Code() int { return int(s) }

// ReasonPhrase returns the standard phrase for s, or "Unknown" for codes
// outside the enumeration.
func (s Status) ReasonPhrase() string {
	if p, ok := reasonPhrases[s]; ok {
		return p
	}
	return "Unknown"
}

func (s Status) String() string {
	return strconv.Itoa(int(s)) + " " + s.ReasonPhrase()
}
