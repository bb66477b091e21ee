package catalog

// Facility-type option values on the portal search form.
const (
	facilityRooms = "b0b1df78-0e74-4b3c-8033-ced5e3e32413"
	facilityHall  = "775b9829-d80e-4191-bebb-a9219b9c3d10"
)

// DefaultUsageType is the usage type applied to chat bookings.
const DefaultUsageType = "Student Activities"

var defaultVenues = []Venue{
	{ID: 1, Name: "SR1", Description: "Seminar Room 1", FacilityType: facilityRooms, Location: "4ada4203-06ab-48ac-8a14-1bb8c26474e2"},
	{ID: 2, Name: "SR2", Description: "Seminar Room 2", FacilityType: facilityRooms, Location: "c353d4b6-dff1-4006-a4db-d7fa49659ffc"},
	{ID: 3, Name: "SR3", Description: "Seminar Room 3", FacilityType: facilityRooms, Location: "c9c6f9d5-9b42-4978-aed1-a1b86af20365"},
	{ID: 4, Name: "SR4", Description: "Seminar Room 4", FacilityType: facilityRooms, Location: "e0568195-98af-403c-b3cf-0350e443e403"},
	{ID: 5, Name: "SR5", Description: "Seminar Room 5", FacilityType: facilityRooms, Location: "8f070a07-7ab2-4194-b841-f53304e7f2a6"},
	{ID: 6, Name: "TR1", Description: "Theme Room 1", FacilityType: facilityRooms, Location: "c27c5808-e80d-4f1c-9982-aca83c359001"},
	{ID: 7, Name: "TR2", Description: "Theme Room 2", FacilityType: facilityRooms, Location: "3fa27ba4-9a0b-41f3-9282-15f78943994b"},
	{ID: 8, Name: "TR3", Description: "Theme Room 3", FacilityType: facilityRooms, Location: "635ed65a-1db0-4201-a40c-77df9ff8e7d8"},
	{ID: 9, Name: "TR4", Description: "Theme Room 4", FacilityType: facilityRooms, Location: "8839f7ab-1a73-4190-b4aa-84e1e6524187"},
	{ID: 10, Name: "Gym", Description: "Gym", FacilityType: facilityRooms, Location: "32ecb2ef-0600-44b9-97b0-dbf2a1c2bfab"},
	{ID: 11, Name: "MPSH", Description: "Multi-purpose sports hall", FacilityType: facilityHall, Location: "c79604f1-8481-4ca1-be2a-17e273348b21"},
}

var defaultUsageTypes = map[string]string{
	"Academic":       "b6ac372c-eb4b-497a-9825-3501b17265b2",
	"Maintenance":    "3d1cd98b-b664-49b0-b063-179cf3009a90",
	"Meeting":        "6802dca4-6858-4085-ab02-1bedb0e9a6b2",
	DefaultUsageType: "d946c992-97e3-4a44-bb11-07ad0440563d",
}

// Default returns the built-in catalog of UTown venues.
func Default() *Catalog {
	c, err := New(defaultVenues, defaultUsageTypes)
	if err != nil {
		panic("catalog: invalid built-in tables: " + err.Error())
	}
	return c
}
