package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/pedbp/internal/domain/evaluate"
	"github.com/okian/pedbp/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestJobLifecycle(t *testing.T) {
	convey.Convey("Given a new job", t, func() {
		now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
		req := model.JobRequest{Dataset: evaluate.Dataset{Rows: []evaluate.Row{{}, {}}}}
		job := model.NewJob("job-1", req, now)

		convey.So(job.Status, convey.ShouldEqual, model.JobQueued)
		convey.So(job.Rows, convey.ShouldEqual, 2)
		convey.So(job.Status.Terminal(), convey.ShouldBeFalse)

		convey.Convey("When it runs and succeeds", func() {
			job.Start(now.Add(time.Second))
			convey.So(job.Status, convey.ShouldEqual, model.JobRunning)

			job.Finish(&evaluate.Outcome{}, nil, now.Add(2*time.Second))

			convey.Convey("Then it is done and the payload is dropped", func() {
				convey.So(job.Status, convey.ShouldEqual, model.JobDone)
				convey.So(job.Status.Terminal(), convey.ShouldBeTrue)
				convey.So(job.Outcome, convey.ShouldNotBeNil)
				convey.So(job.Request.Dataset.Rows, convey.ShouldBeNil)
				convey.So(job.FinishedAt.Sub(*job.StartedAt), convey.ShouldEqual, time.Second)
			})
		})

		convey.Convey("When it fails", func() {
			job.Start(now)
			job.Finish(nil, errors.New("missing required columns: sbp"), now)

			convey.Convey("Then the error is kept", func() {
				convey.So(job.Status, convey.ShouldEqual, model.JobFailed)
				convey.So(job.Error, convey.ShouldContainSubstring, "sbp")
				convey.So(job.Outcome, convey.ShouldBeNil)
			})
		})

		convey.Convey("When it is encoded", func() {
			b, err := json.Marshal(job)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the request is not exposed", func() {
				var m map[string]any
				convey.So(json.Unmarshal(b, &m), convey.ShouldBeNil)
				convey.So(m["job_id"], convey.ShouldEqual, "job-1")
				convey.So(m["status"], convey.ShouldEqual, "queued")
				_, hasReq := m["Request"]
				convey.So(hasReq, convey.ShouldBeFalse)
				_, hasStarted := m["started_at"]
				convey.So(hasStarted, convey.ShouldBeFalse)
			})
		})
	})
}
