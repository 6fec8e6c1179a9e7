package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/ramstk/reliability-allocator/api/v1alpha1"
	"github.com/ramstk/reliability-allocator/internal/plan"
)

const sessionTimeout = 30 * time.Second

const agreePlan = `apiVersion: allocation.ramstk.io/v1alpha1
kind: AllocationPlan
metadata:
  name: agree
spec:
  hardware:
  - id: 1
    name: System
  - id: 2
    parentID: 1
    nSubElements: 2
    factors: {operatingTime: 100}
  - id: 3
    parentID: 1
    nSubElements: 3
    factors: {operatingTime: 100}
  - id: 4
    parentID: 1
    nSubElements: 5
    factors: {operatingTime: 100}
  - id: 5
    parentID: 4
  - id: 6
    parentID: 4
  allocations:
  - nodeID: 1
    method: agree
    measure: mtbf
    value: 1000
    trickleDown: true
`

func run(args ...string) *gexec.Session {
	cmd := exec.Command(binaryPath, args...)
	session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
	Expect(err).NotTo(HaveOccurred())
	return session
}

var _ = Describe("allocate", func() {
	var dir, planFile string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		planFile = filepath.Join(dir, "plan.yaml")
		Expect(os.WriteFile(planFile, []byte(agreePlan), 0o600)).To(Succeed())
	})

	It("should allocate and trickle down a plan", func() {
		out := filepath.Join(dir, "out.yaml")
		metricsOut := filepath.Join(dir, "metrics.txt")

		By("running the plan")
		session := run("run", "-f", planFile, "-o", out, "--metrics-out", metricsOut, "-v", "1")
		Eventually(session, sessionTimeout).Should(gexec.Exit(0))
		Expect(session.Err).To(gbytes.Say("Trickle-down completed"))

		By("reading back the status")
		data, err := os.ReadFile(out)
		Expect(err).NotTo(HaveOccurred())
		p, err := plan.Decode(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.IsStatusConditionTrue(p.Status.Conditions, v1alpha1.TypeAllocated)).To(BeTrue())

		rates := map[int]float64{}
		for _, r := range p.Status.Results {
			rates[r.NodeID] = r.HazardRate
		}
		Expect(rates).To(HaveLen(5))
		Expect(rates[2]).To(BeNumerically("~", 0.0002, 1e-15))
		Expect(rates[3]).To(BeNumerically("~", 0.0003, 1e-15))
		Expect(rates[4]).To(BeNumerically("~", 0.0005, 1e-15))
		Expect(rates[5]).To(BeNumerically("~", 0.00025, 1e-15))
		Expect(rates[6]).To(BeNumerically("~", 0.00025, 1e-15))

		By("checking the metrics dump")
		metrics, err := os.ReadFile(metricsOut)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(metrics)).To(ContainSubstring(`reliability_allocator_trickle_downs_total{outcome="success"} 1`))
	})

	It("should honour configuration from a file and the environment", func() {
		configFile := filepath.Join(dir, "config.yaml")
		Expect(os.WriteFile(configFile, []byte("allocation:\n  maxDepth: 5\n"), 0o600)).To(Succeed())

		cmd := exec.Command(binaryPath, "config", "--config", configFile)
		cmd.Env = append(os.Environ(), "ALLOCATOR_ALLOCATION_DEFAULTMETHOD=arinc")
		session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
		Expect(err).NotTo(HaveOccurred())
		Eventually(session, sessionTimeout).Should(gexec.Exit(0))
		Expect(string(session.Out.Contents())).To(And(
			ContainSubstring("maxDepth: 5"),
			ContainSubstring("defaultMethod: arinc"),
		))
	})

	It("should fail and report the status when the depth limit is hit", func() {
		session := run("run", "-f", planFile, "--max-depth", "1")
		Eventually(session, sessionTimeout).Should(gexec.Exit(1))

		p, err := plan.Decode(session.Out.Contents())
		Expect(err).NotTo(HaveOccurred())
		cond := meta.FindStatusCondition(p.Status.Conditions, v1alpha1.TypeAllocated)
		Expect(cond).NotTo(BeNil())
		Expect(cond.Status).To(Equal(metav1.ConditionFalse))
		Expect(cond.Message).To(ContainSubstring("depth limit exceeded"))
	})

	It("should reject an invalid plan", func() {
		Expect(os.WriteFile(planFile, []byte("kind: Something\n"), 0o600)).To(Succeed())
		session := run("validate", "-f", planFile)
		Eventually(session, sessionTimeout).Should(gexec.Exit(1))
	})
})
