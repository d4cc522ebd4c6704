// Package jsonfeed implements a generic source adapter for institutions that
// publish their catalog as a JSON API.
//
// Endpoints are configured per category as URL templates relative to the
// institution base URL:
//
//	institutions:
//	  - code: example
//	    name: Example University
//	    adapter: jsonfeed
//	    base_url: https://catalog.example.edu
//	    endpoints:
//	      subject: /api/subjects
//	      course: /api/courses?page={page}&updated_since={since}
//
// {page} starts at the first_page option (default 1) and advances until a
// page is empty. A "next" link in the response takes precedence. {since} is
// filled with the last successful sync time for incremental runs and left
// empty otherwise.
//
// Responses are either a bare array or an object with the list under data,
// items, results or records. Items use the catalog JSON field names. An item
// that does not decode is a parse error; a response that is not a list at
// all fails the fetch as a bad response.
package jsonfeed
