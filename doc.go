/*
go-cropwatch runs crop disease detection over camera frames and turns the
results into a geospatial record.

Frames from a single image, a webcam, a recorded video or a drone camera are
passed to an object detector.  Detections whose label is in the disease table
and whose confidence passes the configured threshold are drawn onto the frame
along with banners naming the disease and recommended medicine.  Each accepted
detection is tagged with a location, either a live GPS fix from drone
telemetry or a synthetic point near a reference coordinate, and recorded in an
in-memory ledger for the session.  At the end of a session the ledger can be
plotted on a map and reduced to the convex region enclosing all the recorded
locations.

The root package defines the Detector interface and a Pool of Detectors shared
between concurrent sessions.  See the pipeline package for the session loop
and cmd/cropwatch for the command line tool.
*/
package cropwatch
