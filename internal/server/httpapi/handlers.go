package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/ucredit/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) listCoursesByUser(c *gin.Context) {
	list, err := s.svc.Courses.ListByUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, list)
}

func (s *HTTPServer) listCoursesByDistribution(c *gin.Context) {
	list, err := s.svc.Courses.ListByDistribution(c.Request.Context(), c.Param("distribution_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, list)
}

func (s *HTTPServer) listCoursesByTerm(c *gin.Context) {
	list, err := s.svc.Courses.ListByTerm(c.Request.Context(), c.Param("user_id"), c.Query("year"), c.Query("term"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, list)
}

func (s *HTTPServer) getCourse(c *gin.Context) {
	course, err := s.svc.Courses.GetCourse(c.Request.Context(), c.Param("course_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, course)
}

func (s *HTTPServer) addCourse(c *gin.Context) {
	var in services.AddCourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c, err)
		return
	}

	res, err := s.svc.Courses.AddCourse(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	mutated(c, res)
}

func (s *HTTPServer) changeStatus(c *gin.Context) {
	var body struct {
		Taken *bool `json:"taken"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}

	res, err := s.svc.Courses.ChangeTakenStatus(c.Request.Context(), c.Param("course_id"), body.Taken)
	if err != nil {
		s.fail(c, err)
		return
	}
	mutated(c, res)
}

func (s *HTTPServer) changeDistribution(c *gin.Context) {
	var body struct {
		Distribution []string `json:"distribution"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}

	res, err := s.svc.Courses.ChangeDistributionMembership(c.Request.Context(), c.Param("course_id"), body.Distribution)
	if err != nil {
		s.fail(c, err)
		return
	}
	mutated(c, res)
}

func (s *HTTPServer) reconcileCourse(c *gin.Context) {
	res, err := s.svc.Courses.ReconcileCourseMembership(c.Request.Context(), c.Param("course_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	mutated(c, res)
}

func (s *HTTPServer) deleteCourse(c *gin.Context) {
	res, err := s.svc.Courses.DeleteCourse(c.Request.Context(), c.Param("course_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	mutated(c, res)
}

func (s *HTTPServer) createDistribution(c *gin.Context) {
	var in services.CreateDistributionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c, err)
		return
	}

	d, err := s.svc.Distributions.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, d)
}

func (s *HTTPServer) listDistributionsByUser(c *gin.Context) {
	list, err := s.svc.Distributions.ListByUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, list)
}

func (s *HTTPServer) getDistribution(c *gin.Context) {
	d, err := s.svc.Distributions.Get(c.Request.Context(), c.Param("distribution_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, d)
}

func (s *HTTPServer) reconcileDistribution(c *gin.Context) {
	d, err := s.svc.Courses.ReconcileDistribution(c.Request.Context(), c.Param("distribution_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, d)
}

// loginCallback signs the bearer of a valid identity token in, creating the
// user on first sign-in.
func (s *HTTPServer) loginCallback(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
		return
	}

	claims, err := s.authn.Authenticate(c.Request.Context(), token)
	if err != nil {
		s.fail(c, err)
		return
	}

	u, err := s.svc.Users.Login(c.Request.Context(), claims)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, u)
}

func (s *HTTPServer) getUser(c *gin.Context) {
	u, err := s.svc.Users.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, u)
}

func (s *HTTPServer) exportPlan(c *gin.Context) {
	userID := c.Param("user_id")
	if claims := claimsFrom(c); claims == nil || claims.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"message": "plans can only be exported by their owner"})
		return
	}

	out, err := s.svc.Exports.Export(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *HTTPServer) addSamples(c *gin.Context) {
	u, ws, err := s.svc.Samples.Seed(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": u, "warnings": warnings(ws)})
}
