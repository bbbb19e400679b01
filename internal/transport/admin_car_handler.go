package transport

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"car-marketplace/internal/domain"
	"car-marketplace/internal/middleware"
	"car-marketplace/internal/service"
	"car-marketplace/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	// imageField is the multipart field carrying an uploaded car image
	imageField = "image"

	// formOverhead is the allowance for multipart headers and form fields
	formOverhead = 64 << 10
)

// SpecificationRequest represents a key/value specification payload
type SpecificationRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// CarRequest represents the create listing payload
type CarRequest struct {
	Title          string                 `json:"title" validate:"required"`
	Description    string                 `json:"description" validate:"required"`
	Type           string                 `json:"type" validate:"required,cartype"`
	Category       string                 `json:"category" validate:"required,carcategory"`
	Make           string                 `json:"make" validate:"required"`
	Model          string                 `json:"model" validate:"required"`
	Year           int                    `json:"year" validate:"gte=1900"`
	Mileage        int                    `json:"mileage" validate:"gte=0"`
	Price          float64                `json:"price" validate:"gt=0"`
	Location       string                 `json:"location"`
	ContactNumber  string                 `json:"contactNumber" validate:"required"`
	Fuel           string                 `json:"fuel"`
	Transmission   string                 `json:"transmission"`
	DriveType      string                 `json:"driveType"`
	Doors          *int                   `json:"doors" validate:"omitempty,gt=0"`
	Passengers     *int                   `json:"passengers" validate:"omitempty,gt=0"`
	ExteriorColor  string                 `json:"exteriorColor"`
	InteriorColor  string                 `json:"interiorColor"`
	EngineSize     string                 `json:"engineSize"`
	Dimensions     *domain.Dimensions     `json:"dimensions"`
	VIN            string                 `json:"vin"`
	Origin         string                 `json:"origin"`
	IsFeatured     bool                   `json:"isFeatured"`
	Specifications []SpecificationRequest `json:"specifications" validate:"dive"`
}

// CarPatchRequest represents the partial update payload. Absent fields are kept.
type CarPatchRequest struct {
	Title          *string                 `json:"title"`
	Description    *string                 `json:"description"`
	Type           *string                 `json:"type" validate:"omitempty,cartype"`
	Category       *string                 `json:"category" validate:"omitempty,carcategory"`
	Make           *string                 `json:"make"`
	Model          *string                 `json:"model"`
	Year           *int                    `json:"year" validate:"omitempty,gte=1900"`
	Mileage        *int                    `json:"mileage" validate:"omitempty,gte=0"`
	Price          *float64                `json:"price" validate:"omitempty,gt=0"`
	Location       *string                 `json:"location"`
	ContactNumber  *string                 `json:"contactNumber"`
	Fuel           *string                 `json:"fuel"`
	Transmission   *string                 `json:"transmission"`
	DriveType      *string                 `json:"driveType"`
	Doors          *int                    `json:"doors" validate:"omitempty,gt=0"`
	Passengers     *int                    `json:"passengers" validate:"omitempty,gt=0"`
	ExteriorColor  *string                 `json:"exteriorColor"`
	InteriorColor  *string                 `json:"interiorColor"`
	EngineSize     *string                 `json:"engineSize"`
	Dimensions     *domain.Dimensions      `json:"dimensions"`
	VIN            *string                 `json:"vin"`
	Origin         *string                 `json:"origin"`
	IsFeatured     *bool                   `json:"isFeatured"`
	Specifications *[]SpecificationRequest `json:"specifications" validate:"omitempty,dive"`
}

func (req CarRequest) toCar() *domain.Car {
	return &domain.Car{
		Title:          req.Title,
		Description:    req.Description,
		Type:           domain.CarType(req.Type),
		Category:       domain.CarCategory(req.Category),
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		Mileage:        req.Mileage,
		Price:          req.Price,
		Location:       req.Location,
		ContactNumber:  req.ContactNumber,
		Fuel:           req.Fuel,
		Transmission:   req.Transmission,
		DriveType:      req.DriveType,
		Doors:          req.Doors,
		Passengers:     req.Passengers,
		ExteriorColor:  req.ExteriorColor,
		InteriorColor:  req.InteriorColor,
		EngineSize:     req.EngineSize,
		Dimensions:     req.Dimensions,
		VIN:            req.VIN,
		Origin:         req.Origin,
		IsFeatured:     req.IsFeatured,
		Specifications: toSpecifications(req.Specifications),
	}
}

func (req CarPatchRequest) toPatch() service.CarPatch {
	patch := service.CarPatch{
		Title:         req.Title,
		Description:   req.Description,
		Make:          req.Make,
		Model:         req.Model,
		Year:          req.Year,
		Mileage:       req.Mileage,
		Price:         req.Price,
		Location:      req.Location,
		ContactNumber: req.ContactNumber,
		Fuel:          req.Fuel,
		Transmission:  req.Transmission,
		DriveType:     req.DriveType,
		Doors:         req.Doors,
		Passengers:    req.Passengers,
		ExteriorColor: req.ExteriorColor,
		InteriorColor: req.InteriorColor,
		EngineSize:    req.EngineSize,
		Dimensions:    req.Dimensions,
		VIN:           req.VIN,
		Origin:        req.Origin,
		IsFeatured:    req.IsFeatured,
	}
	if req.Type != nil {
		t := domain.CarType(*req.Type)
		patch.Type = &t
	}
	if req.Category != nil {
		c := domain.CarCategory(*req.Category)
		patch.Category = &c
	}
	if req.Specifications != nil {
		specs := toSpecifications(*req.Specifications)
		patch.Specifications = &specs
	}
	return patch
}

func toSpecifications(reqs []SpecificationRequest) []domain.Specification {
	specs := make([]domain.Specification, 0, len(reqs))
	for _, s := range reqs {
		specs = append(specs, domain.Specification{Key: s.Key, Value: s.Value})
	}
	return specs
}

// AdminCarHandler handles listing management for administrators
type AdminCarHandler struct {
	carService     service.CarService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewAdminCarHandler creates a new AdminCarHandler
func NewAdminCarHandler(carService service.CarService, maxUploadBytes int64, logger *zap.Logger) *AdminCarHandler {
	return &AdminCarHandler{
		carService:     carService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes registers the admin car routes behind auth and the admin role
func (h *AdminCarHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware, adminMiddleware)

		r.Post("/api/admin/cars", h.Create)
		r.Put("/api/admin/cars/{id}", h.Update)
		r.Delete("/api/admin/cars/{id}", h.Delete)
		r.Post("/api/admin/cars/{id}/images", h.UploadImage)
		r.Delete("/api/admin/cars/images/{imageId}", h.DeleteImage)
		r.Post("/api/admin/cars/{id}/specifications", h.AddSpecification)
		r.Delete("/api/admin/cars/specifications/{specId}", h.DeleteSpecification)
	})
}

// Create handles adding a new listing
func (h *AdminCarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CarRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Car validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	car, err := h.carService.Create(r.Context(), req.toCar())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("Car created", zap.Int64("car_id", car.ID))
	middleware.RespondWithData(w, http.StatusCreated, car)
}

// Update handles a partial listing update
func (h *AdminCarHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req CarPatchRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Car update validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	car, err := h.carService.Update(r.Context(), id, req.toPatch())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("Car updated", zap.Int64("car_id", id))
	middleware.RespondWithData(w, http.StatusOK, car)
}

// Delete handles removing a listing together with its images
func (h *AdminCarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.carService.Delete(r.Context(), id); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("Car deleted", zap.Int64("car_id", id))
	middleware.RespondWithData(w, http.StatusOK, message{Message: "car deleted"})
}

// UploadImage handles a multipart image upload. The content type is sniffed
// from the bytes, never taken from the client.
func (h *AdminCarHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if r.ContentLength > h.maxUploadBytes+formOverhead {
		middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "image is too large")
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(imageField)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded image", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	if len(data) == 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "image file is empty")
		return
	}

	detected := mimetype.Detect(data)
	if !mimetype.EqualsAny(detected.String(), storage.AllowedImageTypes...) {
		h.logger.Debug("Rejected image upload", zap.String("content_type", detected.String()))
		middleware.RespondWithError(w, http.StatusBadRequest, "only JPEG, PNG and WebP images are allowed")
		return
	}

	upload := service.Upload{
		Name:        header.Filename,
		ContentType: detected.String(),
		Data:        data,
	}
	isMain, _ := strconv.ParseBool(r.FormValue("isMain"))
	is360View, _ := strconv.ParseBool(r.FormValue("is360View"))

	image, err := h.carService.AddImage(r.Context(), id, upload, isMain, is360View)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("Car image uploaded",
		zap.Int64("car_id", id),
		zap.Int64("image_id", image.ID),
		zap.Int("size", len(data)),
	)
	middleware.RespondWithData(w, http.StatusCreated, image)
}

// DeleteImage handles removing an image
func (h *AdminCarHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	imageID, ok := pathID(w, r, "imageId")
	if !ok {
		return
	}

	if err := h.carService.DeleteImage(r.Context(), imageID); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, message{Message: "image deleted"})
}

// AddSpecification handles attaching a specification to a car
func (h *AdminCarHandler) AddSpecification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req SpecificationRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	spec, err := h.carService.AddSpecification(r.Context(), id, req.Key, req.Value)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusCreated, spec)
}

// DeleteSpecification handles removing a specification
func (h *AdminCarHandler) DeleteSpecification(w http.ResponseWriter, r *http.Request) {
	specID, ok := pathID(w, r, "specId")
	if !ok {
		return
	}

	if err := h.carService.DeleteSpecification(r.Context(), specID); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, message{Message: "specification deleted"})
}
