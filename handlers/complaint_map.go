package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"p9e.in/fcrm/utils"
)

type mapRow struct {
	ID            uuid.UUID
	ComplaintCode string
	Status        string
	ProjectName   *string
	Location      string
	Latitude      float64
	Longitude     float64
	TypeName      *string
}

// ComplaintMap returns complaints with coordinates as a GeoJSON
// FeatureCollection. It takes the list filters plus an optional
// bbox=minLng,minLat,maxLng,maxLat.
func (h *Handler) ComplaintMap(w http.ResponseWriter, r *http.Request) {
	q, err := h.registerQuery(r)
	if err != nil {
		if errors.Is(err, errBadFilter) {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		serverError(w, "complaint map", err)
		return
	}

	var bound *orb.Bound
	if raw := strings.TrimSpace(r.URL.Query().Get("bbox")); raw != "" {
		b, err := utils.ParseBBox(raw)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		bound = &b
		q = q.Where("c.longitude BETWEEN ? AND ? AND c.latitude BETWEEN ? AND ?",
			b.Min.Lon(), b.Max.Lon(), b.Min.Lat(), b.Max.Lat())
	}

	var rows []mapRow
	if err := q.Joins("LEFT JOIN feedback_types ft ON ft.id = c.feedback_type_id").
		Select(`c.id, c.complaint_code, c.status, p.name AS project_name, c.location,
			c.latitude, c.longitude, ft.name AS type_name`).
		Where("c.latitude IS NOT NULL AND c.longitude IS NOT NULL").
		Order("c.created_at DESC").
		Scan(&rows).Error; err != nil {
		serverError(w, "complaint map", err)
		return
	}

	fc := geojson.NewFeatureCollection()
	for _, row := range rows {
		point := orb.Point{row.Longitude, row.Latitude}
		if bound != nil && !bound.Contains(point) {
			continue
		}
		feature := geojson.NewFeature(point)
		feature.ID = row.ID.String()
		feature.Properties["complaint_code"] = row.ComplaintCode
		feature.Properties["status"] = row.Status
		feature.Properties["location"] = row.Location
		feature.Properties["project_name"] = derefString(row.ProjectName)
		feature.Properties["feedback_type_name"] = derefString(row.TypeName)
		fc.Append(feature)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		serverError(w, "encode geojson", err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
