package entities

// ServiceCatalog lists the services patients can book
var ServiceCatalog = []string{
	"General Consultation",
	"Teeth Cleaning",
	"Tooth Filling",
	"Root Canal",
	"Dental Crown",
	"Tooth Extraction",
	"Teeth Whitening",
	"Orthodontic Consultation",
	"Emergency Appointment",
}

// IsKnownService reports whether name is in the catalog
func IsKnownService(name string) bool {
	for _, s := range ServiceCatalog {
		if s == name {
			return true
		}
	}
	return false
}
