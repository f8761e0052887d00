package main

// Calendars are computed in a configured IANA time zone; embed the database
// for hosts without one.
import _ "time/tzdata"
