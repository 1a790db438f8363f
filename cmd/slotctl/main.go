// Command slotctl is the operator CLI for the booking engine: it prints
// calendars, runs the completion sweep once and manages blocked dates
// directly against the database.
package main

func main() {
	Execute()
}
