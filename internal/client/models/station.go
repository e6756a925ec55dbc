package models

type PoliceStation struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type NearestStation struct {
	Station    PoliceStation `json:"station"`
	DistanceKm float64       `json:"distance_km"`
}
